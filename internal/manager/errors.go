package manager

import (
	"errors"
	"fmt"
)

var (
	// ErrBaselineLoad means the baseline report could not be read or decoded.
	ErrBaselineLoad = errors.New("could not load baseline")
	// ErrInterrupted means the scan was cancelled before it finished.
	ErrInterrupted = errors.New("interrupted")
)

// Reasons recorded for skipped files.
const (
	ReasonSyntax    = "syntax error while parsing AST from file"
	ReasonException = "exception while scanning file"
)

// OutputFailure wraps an error raised by a formatter.
type OutputFailure struct {
	Formatter string
	Err       error
}

func (e *OutputFailure) Error() string {
	return fmt.Sprintf("Unable to output report using '%s' formatter: %v", e.Formatter, e.Err)
}

func (e *OutputFailure) Unwrap() error { return e.Err }
