package bridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/bridge"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success - Releases parked requests", func(t *testing.T) {
		tb := setupBridge(t)
		retried := 0
		tb.gate.Listen(context.Background(), func() { retried++ })
		tb.gate.Listen(context.Background(), func() { retried++ })

		tb.auth.On("Login", mock.Anything, auth.Credentials{Username: "ada", Password: "secret"}).
			Return(&auth.Session{Token: "tok", UserID: "7", Username: "ada"}, nil).Once()

		rr := tb.do(http.MethodPost, "/api/v1/login", `{"username":"ada","password":"secret"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp bridge.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, bridge.LoginResponse{UserID: "7", Username: "ada", Released: 2}, resp)
		assert.NotContains(t, rr.Body.String(), "tok")
		assert.Equal(t, 2, retried)
		assert.Equal(t, 0, tb.gate.Pending())
	})

	t.Run("Failure - Rejected credentials keep requests parked", func(t *testing.T) {
		tb := setupBridge(t)
		tb.gate.Listen(context.Background(), func() { t.Error("retry must not run") })
		tb.auth.On("Login", mock.Anything, mock.Anything).
			Return(nil, &transport.HTTPError{StatusCode: http.StatusUnauthorized}).Once()

		rr := tb.do(http.MethodPost, "/api/v1/login", `{"username":"ada","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, 1, tb.gate.Pending())
	})

	t.Run("Failure - Missing password", func(t *testing.T) {
		tb := setupBridge(t)

		rr := tb.do(http.MethodPost, "/api/v1/login", `{"username":"ada"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "Field 'Password' failed on the 'required' tag")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	tb := setupBridge(t)
	tb.auth.On("Logout", mock.Anything).Return(nil).Once()

	rr := tb.do(http.MethodPost, "/api/v1/logout", "")

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginGate(t *testing.T) {
	gate := bridge.NewLoginGate()
	var seen []int
	unsubscribe := gate.Subscribe(func(e bridge.LoginRequired) { seen = append(seen, e.Pending) })

	gate.Listen(context.Background(), func() {})
	gate.Listen(context.Background(), func() {})
	unsubscribe()
	gate.Listen(context.Background(), func() {})

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 3, gate.Pending())
	assert.Equal(t, 3, gate.Release())
	assert.Equal(t, 0, gate.Release())
}

// TestLoginGate_Withdraw verifies that a request which stops waiting leaves
// the gate.
//
// GOAL: once the context of a parked request is done, the retry is dropped,
// subscribers see the lower count and a later login releases nothing for it.
//
// TECHNIQUE: cancel the context handed to Listen and wait for the
// asynchronous withdrawal.
func TestLoginGate_Withdraw(t *testing.T) {
	// ARRANGE
	gate := bridge.NewLoginGate()
	counts := make(chan int, 4)
	gate.Subscribe(func(e bridge.LoginRequired) { counts <- e.Pending })

	ctx, cancel := context.WithCancel(context.Background())
	gate.Listen(ctx, func() { t.Error("withdrawn retry must not run") })
	kept := 0
	gate.Listen(context.Background(), func() { kept++ })
	require.Equal(t, 1, <-counts)
	require.Equal(t, 2, <-counts)

	// ACT
	cancel()

	// ASSERT
	assert.Equal(t, 1, <-counts)
	assert.Equal(t, 1, gate.Pending())
	assert.Equal(t, 1, gate.Release())
	assert.Equal(t, 1, kept)

	// A request whose context is already done is never parked.
	gate.Listen(ctx, func() { t.Error("retry must not run") })
	assert.Equal(t, 0, gate.Pending())
}
