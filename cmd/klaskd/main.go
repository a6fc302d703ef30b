// Package main is the entry point for the klaskd CLI application.
// klaskd crawls configured source trees into a full-text index and
// serves keyword queries against it.
package main

import (
	"github.com/klask-search/klask/cmd/klaskd/cmd"
)

// version is set during build time via ldflags
var version = "dev"

func main() {
	cmd.Execute(version)
}
