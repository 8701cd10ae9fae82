package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitClean    = 0
	exitFindings = 1
	exitError    = 2
)

// exitStatus carries a non-zero exit code. A nil err exits silently.
type exitStatus struct {
	code int
	err  error
}

func (e *exitStatus) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitStatus) Unwrap() error { return e.err }

// versionTemplate is printed by --version.
func versionTemplate() string {
	return fmt.Sprintf("bailiff {{.Version}}\n  commit: %s\n  built at: %s\n", commit, date)
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitClean
	}
	var st *exitStatus
	if errors.As(err, &st) {
		if st.err != nil {
			fmt.Fprintf(stderr, "[bailiff] ERROR %v\n", st.err)
		}
		return st.code
	}
	fmt.Fprintf(stderr, "[bailiff] ERROR %v\n", err)
	return exitError
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
