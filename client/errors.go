package client

import (
	"encoding/json"
	"io"
	"net/http"
)

// Error is the typed error returned for every non-2xx API response.
// FieldErrors is populated only for validation failures (422).
type Error struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *Error) Error() string {
	return e.Message
}

// IsValidation reports whether the error is a validation failure (422)
// carrying per-field messages.
func (e *Error) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// IsAuth reports whether the error is an authentication failure (401).
func (e *Error) IsAuth() bool {
	return e.Status == http.StatusUnauthorized
}

// FirstError returns the first field message if any, otherwise Message.
// Useful for surfaces that can only show a single line.
func (e *Error) FirstError() string {
	for _, msgs := range e.FieldErrors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return e.Message
}

// errorBody is the wire shape of API error responses:
// {"message": "...", "errors": {"field": ["..."]}} with errors present
// only for 422.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// parseError builds an *Error from a non-2xx response. A body that is
// not valid JSON falls back to the HTTP status text so the caller
// always gets something printable.
func parseError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err == nil && len(body) > 0 {
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
			apiErr.Message = parsed.Message
			if resp.StatusCode == http.StatusUnprocessableEntity {
				apiErr.FieldErrors = parsed.Errors
			}
			return apiErr
		}
	}

	apiErr.Message = resp.Status
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
