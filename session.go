package vdom

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session keeps the server-side mirror of one client document and turns
// successive renders into patch lists.
//
// The mirror is advanced by applying each patch list to it, so it carries
// exactly the identities the client holds. Identities come from one
// generator that is never reset, so a newly inserted node cannot collide
// with one that is still live.
type Session struct {
	id      string
	logger  *slog.Logger
	verify  bool
	ids     IDGenerator
	parser  *Parser
	applier *Applier

	mu     sync.Mutex
	mirror *Node
}

type SessionOption func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithVerify makes every render check that the advanced mirror equals the
// freshly parsed tree.
func WithVerify(v bool) SessionOption {
	return func(s *Session) { s.verify = v }
}

// WithSessionMaxDepth sets the parser's nesting limit.
func WithSessionMaxDepth(n int) SessionOption {
	return func(s *Session) { s.parser.maxDepth = n }
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.NewString(),
		logger: slog.Default(),
	}
	s.parser = NewParser(WithIDGenerator(&s.ids))
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	s.applier = &Applier{OnSkip: func(p Patch, err error) {
		s.logger.Debug("patch skipped", "type", p.Type, "path", p.Path.String(), "error", err)
	}}
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Render parses content and returns the patches that bring the client from
// the previous render to this one. The first render returns no patches;
// the caller sends Tree() in full.
func (s *Session) Render(content string) ([]Patch, error) {
	tree, err := s.parser.Parse(content)
	if err != nil {
		s.logger.Warn("render failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror == nil {
		s.mirror = tree
		s.logger.Debug("initial render", "nodes", CountNodes(tree))
		return nil, nil
	}

	patches := Diff(s.mirror, tree)
	next := s.mirror.Clone()
	s.applier.ApplyAll(next, patches)

	if s.verify && !Equal(next, tree) {
		// The mirror no longer describes the client; the caller should
		// resend the full document.
		s.logger.Warn("mirror diverged from render", "patches", len(patches))
		next = tree
	}
	s.mirror = next

	s.logger.Debug("render diffed", "patches", len(patches))
	return patches, nil
}

// Tree returns a copy of the mirror, or nil before the first render.
func (s *Session) Tree() *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Clone()
}

// Reset forgets the mirror; the next Render behaves like the first.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = nil
}
