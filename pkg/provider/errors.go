package provider

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a successful response carries no text
// where the provider's envelope should hold it.
var ErrEmptyResponse = errors.New("response contained no generated text")

// APIError is an error payload reported by the provider itself, as opposed
// to a transport or decoding failure.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no error message"
	}
	if e.Type != "" {
		return fmt.Sprintf("%s API error (HTTP %d, %s): %s", e.Provider, e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, msg)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
