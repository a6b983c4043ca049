package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx response from a backend service, converted once at
// the client boundary.
type StatusError struct {
	Method string
	URL    string
	Status int
	// Message is the server-supplied message, when the body carried one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, status int) bool {
	se, ok := AsStatusError(err)
	return ok && se.Status == status
}

// serverMessage extracts a human message from an error body. Spring services
// answer with {"message": ...}; some handlers use {"error": ...} or plain text.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	if len(trimmed) > 512 || strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}
