package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

const answerStream = `data:{"type":"reasoning","content":"Thinking..."}
data:{"type":"content","content":"Hello"}
data:{"type":"content","content":" world"}
data:{"type":"source","content":"report.pdf"}
data:{"type":"source","content":"http://host/report.pdf"}
data:{"type":"done"}
`

// capturedRequest is what the fake backend saw.
type capturedRequest struct {
	Authorization string
	Body          map[string]json.RawMessage
}

// fakeBackend streams answerStream, or answers with a canned error while
// rejectUntil (if set) says so.
type fakeBackend struct {
	mu       sync.Mutex
	requests []capturedRequest
	reject   func(r *http.Request, attempt int) (status int, body string, rejected bool)
	stream   string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	b.requests = append(b.requests, capturedRequest{Authorization: r.Header.Get("Authorization"), Body: body})
	attempt := len(b.requests)
	b.mu.Unlock()

	if b.reject != nil {
		if status, msg, rejected := b.reject(r, attempt); rejected {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, msg)
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	payload := b.stream
	if payload == "" {
		payload = answerStream
	}
	_, _ = io.WriteString(w, payload)
}

func (b *fakeBackend) captured() []capturedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]capturedRequest(nil), b.requests...)
}

// turn is a minimal conversation owner for transport calls.
type turn struct {
	mu       sync.Mutex
	messages []model.Message
	finished int
	started  int
	errs     []error
}

func newTurn() *turn {
	return &turn{messages: []model.Message{model.NewUserMessage("hi"), model.NewEmptyAssistantMessage()}}
}

func (tt *turn) sendOptions() transport.SendOptions {
	return transport.SendOptions{
		Messages: model.CloneMessages(tt.messages[:1]),
		Body:     map[string]any{"id": "conv-1"},
		OnStart:  func(io.ReadCloser) { tt.started++ },
		StreamCallbacks: transport.StreamCallbacks{
			Update: func(fn func([]model.Message) []model.Message) {
				tt.mu.Lock()
				defer tt.mu.Unlock()
				tt.messages = fn(tt.messages)
			},
		},
		OnFinish: func() { tt.finished++ },
		OnError:  func(err error) { tt.errs = append(tt.errs, err) },
	}
}

func newClient(t *testing.T, serverURL string, store repository.Storage, events *auth.Events) *transport.Client {
	t.Helper()
	return transport.NewClient(transport.Options{
		BaseURL: serverURL,
		Storage: store,
		Auth:    events,
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("Success - Streams into the last assistant message", func(t *testing.T) {
		backend := &fakeBackend{}
		server := httptest.NewServer(backend)
		defer server.Close()

		store := repository.NewMemoryRepository()
		require.NoError(t, store.SetItem(context.Background(), repository.KeyToken, "tok"))
		client := newClient(t, server.URL, store, auth.NewEvents(nil))
		tt := newTurn()

		err := client.Send(context.Background(), tt.sendOptions())

		require.NoError(t, err)
		last := tt.messages[len(tt.messages)-1]
		assert.Equal(t, "Hello world", last.Content.String())
		assert.Equal(t, "Thinking...", last.Reasoning)
		assert.Equal(t, []model.Source{{Name: "report.pdf", URL: "http://host/report.pdf"}}, last.Sources)
		assert.Equal(t, 1, tt.started)
		assert.Equal(t, 1, tt.finished)
		assert.Empty(t, tt.errs)

		reqs := backend.captured()
		require.Len(t, reqs, 1)
		assert.Equal(t, "Bearer tok", reqs[0].Authorization)
		assert.JSONEq(t, `"conv-1"`, string(reqs[0].Body["id"]))
		assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(reqs[0].Body["messages"]))
	})

	t.Run("Success - Missing token sends the request unauthenticated", func(t *testing.T) {
		backend := &fakeBackend{}
		server := httptest.NewServer(backend)
		defer server.Close()

		client := newClient(t, server.URL, repository.NewMemoryRepository(), nil)
		tt := newTurn()

		require.NoError(t, client.Send(context.Background(), tt.sendOptions()))
		assert.Empty(t, backend.captured()[0].Authorization)
	})
}

// TestClient_Send_LoginReplay verifies the 401 path end to end.
//
// GOAL: A request rejected with 401 must not surface an error. A registered
// listener stores a fresh token and calls retry; the transport then replays
// the identical request and the final state must match a run that got 200
// straight away.
func TestClient_Send_LoginReplay(t *testing.T) {
	ctx := context.Background()

	// ARRANGE: a reference run that is accepted immediately.
	refServer := httptest.NewServer(&fakeBackend{})
	defer refServer.Close()
	reference := newTurn()
	require.NoError(t, newClient(t, refServer.URL, repository.NewMemoryRepository(), nil).Send(ctx, reference.sendOptions()))

	rejections := map[string]func(r *http.Request, attempt int) (int, string, bool){
		"401 status": func(r *http.Request, _ int) (int, string, bool) {
			return http.StatusUnauthorized, `{"detail":"Unauthorized"}`, r.Header.Get("Authorization") != "Bearer fresh"
		},
		"auth-shaped error body": func(r *http.Request, _ int) (int, string, bool) {
			return http.StatusForbidden, `{"code":"not_authenticated"}`, r.Header.Get("Authorization") != "Bearer fresh"
		},
		"localized detail marker": func(r *http.Request, _ int) (int, string, bool) {
			return http.StatusInternalServerError, `{"detail":"用户未登录，请先登录"}`, r.Header.Get("Authorization") != "Bearer fresh"
		},
	}

	for name, reject := range rejections {
		t.Run(name, func(t *testing.T) {
			backend := &fakeBackend{reject: reject}
			server := httptest.NewServer(backend)
			defer server.Close()

			store := repository.NewMemoryRepository()
			events := auth.NewEvents(nil)
			prompts := 0
			events.AddListener(func(_ context.Context, retry func()) {
				prompts++
				require.NoError(t, store.SetItem(ctx, repository.KeyToken, "fresh"))
				retry()
			})
			client := newClient(t, server.URL, store, events)
			tt := newTurn()

			// ACT
			err := client.Send(ctx, tt.sendOptions())

			// ASSERT
			require.NoError(t, err)
			assert.Empty(t, tt.errs)
			assert.Equal(t, 1, prompts)
			assert.Equal(t, reference.messages, tt.messages)
			assert.Equal(t, reference.finished, tt.finished)

			reqs := backend.captured()
			require.Len(t, reqs, 2)
			assert.Empty(t, reqs[0].Authorization)
			assert.Equal(t, "Bearer fresh", reqs[1].Authorization)
			assert.Equal(t, reqs[0].Body, reqs[1].Body, "replay sends the identical body")
		})
	}
}

func TestClient_Send_LoginFailures(t *testing.T) {
	unauthorized := func(*http.Request, int) (int, string, bool) {
		return http.StatusUnauthorized, `{}`, true
	}

	t.Run("No login listener is a loud error", func(t *testing.T) {
		server := httptest.NewServer(&fakeBackend{reject: unauthorized})
		defer server.Close()
		client := newClient(t, server.URL, repository.NewMemoryRepository(), auth.NewEvents(nil))
		tt := newTurn()

		err := client.Send(context.Background(), tt.sendOptions())

		assert.ErrorIs(t, err, app_errors.ErrNoLoginHandler)
		require.Len(t, tt.errs, 1)
		assert.ErrorIs(t, tt.errs[0], app_errors.ErrNoLoginHandler)
		assert.Equal(t, 0, tt.finished)
	})

	t.Run("Cancel while waiting for login is not an error", func(t *testing.T) {
		server := httptest.NewServer(&fakeBackend{reject: unauthorized})
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		events := auth.NewEvents(nil)
		var waitCtx context.Context
		events.AddListener(func(c context.Context, _ func()) {
			waitCtx = c
			cancel()
		})
		client := newClient(t, server.URL, repository.NewMemoryRepository(), events)
		tt := newTurn()

		err := client.Send(ctx, tt.sendOptions())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, tt.errs)
		assert.Equal(t, 0, tt.finished)
		require.NotNil(t, waitCtx)
		assert.Error(t, waitCtx.Err(), "listeners learn that the request stopped waiting")
	})
}

func TestClient_Send_HTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantNetwork bool
	}{
		{"server error", http.StatusServiceUnavailable, true},
		{"client error", http.StatusBadRequest, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{reject: func(*http.Request, int) (int, string, bool) {
				return tc.status, `{"detail":"nope"}`, true
			}}
			server := httptest.NewServer(backend)
			defer server.Close()
			client := newClient(t, server.URL, repository.NewMemoryRepository(), auth.NewEvents(nil))
			tt := newTurn()

			err := client.Send(context.Background(), tt.sendOptions())

			var httpErr *transport.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tc.status, httpErr.StatusCode)
			assert.ErrorContains(t, err, "HTTP error! status:")
			assert.Equal(t, tc.wantNetwork, transport.IsNetworkError(err))
			assert.Len(t, tt.errs, 1)
			assert.Len(t, backend.captured(), 1, "no replay for non-auth errors")
		})
	}
}

func TestClient_Send_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newClient(t, url, repository.NewMemoryRepository(), nil)
	tt := newTurn()

	err := client.Send(context.Background(), tt.sendOptions())

	require.Error(t, err)
	assert.True(t, transport.IsNetworkError(err))
	assert.Len(t, tt.errs, 1)
}

func TestClient_Regenerate(t *testing.T) {
	t.Run("Success - Rewrites the target message in place", func(t *testing.T) {
		backend := &fakeBackend{stream: `data:{"type":"content","content":"new answer"}
data:{"type":"source","content":"fresh.pdf"}
`}
		server := httptest.NewServer(backend)
		defer server.Close()
		client := newClient(t, server.URL, repository.NewMemoryRepository(), nil)

		old := model.NewEmptyAssistantMessage()
		old.Content = model.TextContent("old answer")
		old.Reasoning = "old thoughts"
		old.Sources = []model.Source{{Name: "stale.pdf", URL: "/stale.pdf"}}
		messages := []model.Message{model.NewUserMessage("q1"), old, model.NewUserMessage("q2")}

		var loading []bool
		var mu sync.Mutex
		var finished atomic.Int32
		err := client.Regenerate(context.Background(), transport.RegenerateOptions{
			Messages:       messages,
			AssistantIndex: 1,
			SetLoading:     func(l bool) { loading = append(loading, l) },
			StreamCallbacks: transport.StreamCallbacks{
				Update: func(fn func([]model.Message) []model.Message) {
					mu.Lock()
					defer mu.Unlock()
					messages = fn(messages)
				},
			},
			OnFinish: func() { finished.Add(1) },
		})

		require.NoError(t, err)
		assert.Equal(t, []bool{true, false}, loading)
		assert.Equal(t, int32(1), finished.Load())
		require.Len(t, messages, 3)
		assert.Equal(t, "new answer", messages[1].Content.String())
		assert.Empty(t, messages[1].Reasoning)
		assert.Equal(t, []model.Source{{Name: "fresh.pdf"}}, messages[1].Sources)
		assert.Equal(t, "q2", messages[2].Content.String())

		reqs := backend.captured()
		require.Len(t, reqs, 1)
		assert.JSONEq(t, `[{"role":"user","content":"q1"}]`, string(reqs[0].Body["messages"]))
	})

	t.Run("Failure - Index is not an assistant turn", func(t *testing.T) {
		client := newClient(t, "http://127.0.0.1:1", repository.NewMemoryRepository(), nil)
		var reported error

		err := client.Regenerate(context.Background(), transport.RegenerateOptions{
			Messages:        []model.Message{model.NewUserMessage("q")},
			AssistantIndex:  0,
			StreamCallbacks: transport.StreamCallbacks{Update: func(func([]model.Message) []model.Message) {}},
			OnError:         func(err error) { reported = err },
		})

		assert.ErrorIs(t, err, app_errors.ErrNothingToRegenerate)
		assert.ErrorIs(t, reported, app_errors.ErrNothingToRegenerate)
	})

	t.Run("Failure - Error keeps the old answer", func(t *testing.T) {
		backend := &fakeBackend{reject: func(*http.Request, int) (int, string, bool) {
			return http.StatusInternalServerError, `{}`, true
		}}
		server := httptest.NewServer(backend)
		defer server.Close()
		client := newClient(t, server.URL, repository.NewMemoryRepository(), nil)

		old := model.NewEmptyAssistantMessage()
		old.Content = model.TextContent("old answer")
		messages := []model.Message{model.NewUserMessage("q1"), old}

		err := client.Regenerate(context.Background(), transport.RegenerateOptions{
			Messages:       messages,
			AssistantIndex: 1,
			StreamCallbacks: transport.StreamCallbacks{
				Update: func(fn func([]model.Message) []model.Message) { messages = fn(messages) },
			},
		})

		require.Error(t, err)
		assert.Equal(t, "old answer", messages[1].Content.String())
	})
}
