package pollinations

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message())
}

// Message extracts the upstream message, preferring the JSON error fields.
func (e *StatusError) Message() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return ""
	}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if len(payload.Error) > 0 {
			var s string
			if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
				return s
			}
			var inner struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload.Error, &inner); err == nil && inner.Message != "" {
				return inner.Message
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return body
}
