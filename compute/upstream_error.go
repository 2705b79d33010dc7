package compute

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// UpstreamError describes a failed call to the retrieval engine.
type UpstreamError struct {
	BaseURL   string
	Operation string
	// Status is the upstream HTTP status, zero when the call never got a
	// response.
	Status int
	Body   []byte
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("compute %s: upstream %s returned %d: %v", e.Operation, e.BaseURL, e.Status, e.Err)
	}
	return fmt.Sprintf("compute %s: upstream %s unreachable: %v", e.Operation, e.BaseURL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode maps the failure to the status the proxy should answer with.
// Anything without a usable upstream status becomes a bad gateway.
func (e *UpstreamError) StatusCode() int {
	if e.Status >= 400 {
		return e.Status
	}
	return http.StatusBadGateway
}

// Details returns the upstream error body when it was valid JSON.
func (e *UpstreamError) Details() json.RawMessage {
	if len(e.Body) == 0 || !json.Valid(e.Body) {
		return nil
	}
	return json.RawMessage(e.Body)
}
