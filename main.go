package main

import (
	"fmt"
	"os"

	"github.com/ericy3/lightweightGit/cmd/cli"
	"github.com/ericy3/lightweightGit/internal/failures"
)

const (
	userErrorTemplateConstant     = "%v\n"
	internalErrorTemplateConstant = "fatal: %v\n"
)

// main executes the lwgit command-line application.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}
	if failures.IsUser(executionError) {
		fmt.Fprintf(os.Stdout, userErrorTemplateConstant, executionError)
	} else {
		fmt.Fprintf(os.Stderr, internalErrorTemplateConstant, executionError)
	}
	os.Exit(failures.ExitCode(executionError))
}
