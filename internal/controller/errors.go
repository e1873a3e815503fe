package controller

import (
	"errors"
	"net/http"

	"github.com/seenimoa/pynvestor/internal/backend"
)

// userMessage maps an error to the text shown in a mount point.
func userMessage(err error) string {
	var (
		verr *ValidationError
		serr *backend.StatusError
	)
	switch {
	case errors.As(err, &verr):
		return "Invalid input: " + verr.Error()
	case errors.As(err, &serr):
		return "The server could not complete the request (" + http.StatusText(serr.Code) + ")."
	case errors.Is(err, backend.ErrMalformedResponse):
		return "The server sent an unreadable response."
	case errors.Is(err, backend.ErrTransport):
		return "The server is unreachable. Please try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
