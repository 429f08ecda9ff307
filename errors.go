package vdom

import (
	"errors"
	"fmt"
)

var (
	// ErrDepthExceeded is returned by the parser when markup nests deeper
	// than the configured limit.
	ErrDepthExceeded = errors.New("vdom: maximum nesting depth exceeded")

	// ErrTargetNotFound reports a path or identity that does not resolve.
	// The applier treats it as already converged and never surfaces it.
	ErrTargetNotFound = errors.New("vdom: patch target not found")

	// ErrInvalidPatch is wrapped by decoding errors for malformed patches.
	ErrInvalidPatch = errors.New("vdom: invalid patch")
)

// ParseError reports markup that could not be tokenized.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vdom: failed to parse HTML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
