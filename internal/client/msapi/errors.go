package msapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the server rejects the stored credential
// with a 401. By the time a caller sees it, the token source has already been
// invalidated, so the next interaction falls back to the login flow.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError is a non-2xx reply that is not an authentication failure. Message
// is display-ready: the server-provided detail when one was parseable, a
// generic status-coded message otherwise. Errors that are neither
// ErrUnauthorized nor *HTTPError are transport-level failures.
type HTTPError struct {
	Status  int    // HTTP status code of the reply
	Message string // Human-readable failure description
}

func (e *HTTPError) Error() string {
	return e.Message
}

// errorMessage extracts the server-provided detail field from an error reply
// body, falling back to a generic status-coded message.
func errorMessage(resp *http.Response) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}

	return fmt.Sprintf("Request failed: %d", resp.StatusCode)
}
