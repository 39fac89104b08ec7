package telegram

import "fmt"

// TransportError reports that the outbound call itself failed before any
// HTTP response was obtained.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EmptyBodyError reports that the call succeeded at the transport layer but
// the response carried no body.
type EmptyBodyError struct {
	StatusCode int
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("invalid response with code %d", e.StatusCode)
}

// APIRejectionError reports that the response body parsed but the API
// flagged the call as not ok. Body keeps the raw payload for diagnostics.
type APIRejectionError struct {
	Description string
	Body        []byte
}

func (e *APIRejectionError) Error() string {
	if e.Description == "" {
		return "invalid content in response"
	}
	return fmt.Sprintf("invalid content in response: %s", e.Description)
}
