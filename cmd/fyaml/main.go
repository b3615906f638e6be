package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fyaml-lang/go-fyaml"
)

// Version information (injected at build time)
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes: 0 success, 1 syntax error, 2 I/O error, 3 usage error.
const (
	exitOK = iota
	exitSyntax
	exitIO
	exitUsage
)

// usageError marks bad arguments as distinct from parse and I/O
// failures.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(classify(err))
	}
}

func classify(err error) int {
	var perr *fyaml.Error
	if errors.As(err, &perr) {
		return exitSyntax
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return exitUsage
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return exitIO
	}
	return exitUsage
}
