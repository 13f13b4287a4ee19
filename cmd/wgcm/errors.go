package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/alexisbeaulieu97/wgcm/internal/components"
)

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error {
	return e.cause
}

// renderError prints err, framed when w is a terminal.
func renderError(w io.Writer, err error) {
	if !isTerminal(w) {
		fmt.Fprintln(w, err)
		return
	}

	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		msg := fmt.Sprintf("%s: %s\n\n%v\n\n%s", cmdErr.operation, cmdErr.context, cmdErr.cause, cmdErr.suggestion)
		fmt.Fprintln(w, components.ErrorAlert(msg).View())
		return
	}
	fmt.Fprintln(w, components.ErrorAlert(err.Error()).View())
}

func isTerminal(w any) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
