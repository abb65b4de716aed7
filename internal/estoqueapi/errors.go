package estoqueapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports whether the session was rejected.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err is a 401/403 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorMessage pulls the human message out of an error body. The API sends
// either a string or a list of strings; anything else falls back to the
// status code.
func errorMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("Erro %d", status)

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Message) == 0 {
		return fallback
	}

	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			return fallback
		}
		return single
	}

	var list []any
	if err := json.Unmarshal(envelope.Message, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		if joined := strings.Join(parts, " "); joined != "" {
			return joined
		}
	}
	return fallback
}
