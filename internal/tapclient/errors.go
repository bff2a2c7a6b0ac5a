package tapclient

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTagID means the run was started without a tag id.
	ErrMissingTagID = errors.New("NFC tag id missing from the URL")
	// ErrNoRedirect means the resolver answered 200 without a public_url.
	ErrNoRedirect = errors.New("redirect URL not found for this tag")
	// ErrUnsafeRedirect means the resolved URL is not http or https and
	// navigation was refused.
	ErrUnsafeRedirect = errors.New("redirect URL refused: only http and https are allowed")

	// Location failures. All of them are soft: the tap is recorded
	// without a location.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnsupported      = errors.New("geolocation not supported")
	ErrLocationTimeout  = errors.New("geolocation timed out")
)

// NetworkError wraps a transport failure talking to the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-success HTTP answer. Message is the server's
// "message" field when the body carried one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return "server error: " + e.Message
	}
	return fmt.Sprintf("server error: status %d, unexpected response", e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Status == 404
}
