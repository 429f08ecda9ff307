// Package main is the entry point for the vdompatch CLI.
package main

import "github.com/dannyswat/vdom/cmd"

func main() {
	cmd.Execute()
}
