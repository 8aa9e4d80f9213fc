package errors

import (
	"fmt"
	"strings"
)

// HTTPError is a terminal non-2xx response from the agent backend.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	if detail := strings.TrimSpace(string(e.Body)); detail != "" {
		if len(detail) > 200 {
			detail = detail[:200] + "..."
		}
		msg += ": " + detail
	}
	return msg
}

// IsServerError reports whether the status is in the 5xx class.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode <= 599
}
