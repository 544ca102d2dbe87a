package main

import (
	"os"

	"github.com/offlinefirst/deskutil/internal/buildinfo"
	"github.com/offlinefirst/deskutil/internal/cmd"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version string
	commit  string
)

func main() {
	buildinfo.SetVersion(version, commit)

	root := cmd.NewRootCommand()
	err := root.Execute(os.Args[1:])
	cmd.ReportError(os.Stderr, err)
	os.Exit(cmd.ExitCode(err))
}
