package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/spawn/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints err with a hint chosen by its code and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	groveErr, isGrove := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "%s Configuration not found: %v\n", errorStyle.Render("x"), groveErr.Details["path"])

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "%s %s\n", errorStyle.Render("x"), groveErr.Message)
		fmt.Fprintf(out, "Run 'spawn schema config' to see the accepted keys.\n")

	case errors.ErrCodeSpawnFailed:
		fmt.Fprintf(out, "%s %s\n", errorStyle.Render("x"), groveErr.Message)
		if groveErr.Details["reason"] == errors.ReasonNotFound {
			fmt.Fprintf(out, "Check that the executable is installed and on your PATH.\n")
		}

	case errors.ErrCodeCommandTimeout:
		fmt.Fprintf(out, "%s %s\n", errorStyle.Render("x"), groveErr.Message)
		fmt.Fprintf(out, "Raise the limit with --timeout or 'timeout' in spawn.yml.\n")

	case errors.ErrCodeSessionNotFound:
		fmt.Fprintf(out, "%s Session '%v' not found in %v\n", errorStyle.Render("x"),
			groveErr.Details["sessionId"], groveErr.Details["logRoot"])
		fmt.Fprintf(out, "Run 'spawn sessions list' to see recent sessions.\n")

	default:
		fmt.Fprintf(out, "%s Error: %v\n", errorStyle.Render("x"), err)
	}

	if h.Verbose && isGrove {
		fmt.Fprintf(out, "\nError details:\n%s\n", groveErr.ToJSON())
	}
	return err
}
