package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
)

// HTTPError is a terminal non-2xx backend response.
type HTTPError = app_errors.HTTPError

// authMarkers are the substrings the backend uses in "detail" and "message"
// when a request lacks a valid login.
var authMarkers = []string{"用户未登录", "未登录", "not authenticated"}

// isAuthErrorBody reports whether an error body encodes a not-authenticated
// condition: code "not_authenticated" or a known marker in detail/message.
func isAuthErrorBody(body []byte) bool {
	var payload struct {
		Code    any             `json:"code"`
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return false
	}
	if code, ok := payload.Code.(string); ok && code == "not_authenticated" {
		return true
	}
	for _, field := range []json.RawMessage{payload.Detail, payload.Message} {
		var text string
		if json.Unmarshal(field, &text) != nil {
			continue
		}
		lower := strings.ToLower(text)
		for _, marker := range authMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// networkHints are message fragments that mark connection-class failures
// when no typed error is available.
var networkHints = []string{
	"ERR_CONNECTION_REFUSED",
	"connection refused",
	"connection reset",
	"no such host",
	"network",
	"服务器",
	"EOF",
}

// IsNetworkError reports whether err is a connection-class failure or a 5xx
// server error, the two cases shown to the user as an error bubble.
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *app_errors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsServerError()
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range networkHints {
		if strings.Contains(msg, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// IsCancellation reports whether err stems from the caller cancelling ctx.
func IsCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return ctx != nil && ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled)
}
