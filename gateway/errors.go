package gateway

import "fmt"

// ValidationError means the request was rejected before any network call:
// missing API key, missing model, or empty input text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// TransportError means the HTTP call itself could not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("request failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the endpoint answered but not usefully: a non-success
// status, or (Malformed) a success response missing the generated text.
type ProtocolError struct {
	StatusCode int
	Message    string
	Malformed  bool
}

func (e *ProtocolError) Error() string { return e.Message }
