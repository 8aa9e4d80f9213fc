package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
)

func TestIsAuthErrorBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"code marker", `{"code":"not_authenticated"}`, true},
		{"localized detail", `{"detail":"用户未登录"}`, true},
		{"short localized message", `{"message":"请先登录，未登录"}`, true},
		{"english detail", `{"detail":"User Not Authenticated"}`, true},
		{"other code", `{"code":"rate_limited","detail":"slow down"}`, false},
		{"numeric code", `{"code":401}`, false},
		{"structured detail", `{"detail":[{"loc":["body"],"msg":"field required"}]}`, false},
		{"not json", `Unauthorized`, false},
		{"empty", ``, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isAuthErrorBody([]byte(tc.body)))
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", fmt.Errorf("wrapped: %w", context.Canceled), false},
		{"server error", &app_errors.HTTPError{StatusCode: 502}, true},
		{"client error", &app_errors.HTTPError{StatusCode: 404}, false},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("boom")}, true},
		{"message hint", errors.New("failed to fetch: network down"), true},
		{"localized hint", errors.New("服务器暂时不可用"), true},
		{"unexpected eof", errors.New("unexpected EOF"), true},
		{"plain", errors.New("bad input"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsNetworkError(tc.err))
		})
	}
}

func TestIsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, IsCancellation(ctx, errors.New("boom")))
	cancel()
	assert.True(t, IsCancellation(ctx, errors.New("read on closed body")))
	assert.True(t, IsCancellation(context.Background(), context.Canceled))
}

func TestRequestBody(t *testing.T) {
	payload, err := requestBody(nil, map[string]any{"id": "c1", "messages": "ignored"})

	assert.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","messages":[]}`, string(payload))
}
