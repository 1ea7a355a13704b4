package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/tui/theme"
)

// ErrorHandler prints errors with a hint for the next step.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a handler writing to out.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

// Handle prints err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	t := theme.DefaultTheme
	fmt.Fprintf(h.Out, "%s %s\n", t.Error.Render(theme.IconError), errors.UserMessage(err))

	if hint := Hint(err); hint != "" {
		fmt.Fprintln(h.Out, t.Muted.Render(hint))
	}

	if h.Verbose {
		if coded, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", coded.ToJSON())
		}
	}
	return err
}

// Hint returns the follow-up suggestion for an error code, or "".
func Hint(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotAuthenticated:
		return "Run 'ftrack login' to sign in."
	case errors.ErrCodeSessionExpired:
		return "Your session could not be refreshed. Run 'ftrack login' again."
	case errors.ErrCodeNetwork:
		return "Check that the backend is running and api.base_url (or FTRACK_API_URL) points at it."
	case errors.ErrCodeMalformedResponse:
		return "The server answered with unexpected data. Run with --verbose for details."
	case errors.ErrCodeConfigNotFound:
		return "Pass an existing file with --config or unset FTRACK_CONFIG."
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		return "Run 'ftrack config validate' to see what is wrong."
	case errors.ErrCodeStorage:
		return "Run 'ftrack paths' to see where local state is kept."
	case errors.ErrCodeNotFound:
		if coded, ok := errors.As(err); ok && coded.Details["kind"] == "client" {
			return "Run 'ftrack clients list' to see available clients."
		}
	}
	return ""
}
