// Package chat owns the conversation: the message list, the loading flag and
// the lifecycle of each turn. Every mutation of the list goes through the
// session, including the ones the stream decoder makes while a turn streams.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/events"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

// DefaultErrorMessage is the text of the synthetic assistant error bubble.
const DefaultErrorMessage = "Server connection error, please try again later."

const saveTimeout = 5 * time.Second

// Transport is the part of the chat transport a session drives.
type Transport interface {
	Send(ctx context.Context, opts transport.SendOptions) error
	Regenerate(ctx context.Context, opts transport.RegenerateOptions) error
}

// Options configures a Session. Transport is required.
type Options struct {
	Transport Transport
	// Store, when set, provides the saved messages of ConversationID at start
	// and receives the full list after every finished turn.
	Store          repository.ConversationStore
	ConversationID string
	// Body holds extra request fields sent with every turn.
	Body         map[string]any
	ErrorMessage string

	OnFinish func(message model.Message)
	OnError  func(err error)
}

// State is a point-in-time copy of the session.
type State struct {
	Messages  []model.Message `json:"messages"`
	Loading   bool            `json:"loading"`
	Reasoning string          `json:"reasoning"`
	Error     string          `json:"error,omitempty"`
}

type Session struct {
	opts Options

	mu        sync.Mutex
	messages  []model.Message
	loading   bool
	reasoning string
	err       error
	turn      uint64
	cancel    context.CancelFunc
	reader    io.ReadCloser

	wg      sync.WaitGroup
	changes *events.Bus[State]
}

// NewSession creates a session and loads the saved messages of the
// configured conversation, if any.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, errors.New("chat: transport is required")
	}
	if opts.ErrorMessage == "" {
		opts.ErrorMessage = DefaultErrorMessage
	}

	s := &Session{
		opts:     opts,
		messages: []model.Message{},
		changes:  events.NewBus[State]("chat-session"),
	}

	if opts.Store != nil && opts.ConversationID != "" {
		saved, err := opts.Store.LoadMessages(ctx, opts.ConversationID)
		switch {
		case err == nil:
			s.messages = saved
			slog.Info("Loaded saved conversation", "conversation_id", opts.ConversationID, "messages", len(saved))
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, fmt.Errorf("could not load saved conversation: %w", err)
		}
	}
	return s, nil
}

// Subscribe registers fn to receive a State after every change.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Messages returns a copy of the message list.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the most recent failed turn.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetMessages replaces the message list through fn, which always receives
// the current list.
func (s *Session) SetMessages(fn func([]model.Message) []model.Message) {
	s.mu.Lock()
	s.messages = fn(s.messages)
	s.mu.Unlock()
	s.notify()
}

// Submit starts a turn for a plain-text user message. Blank text is a no-op
// and reports false.
func (s *Session) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	s.start(model.NewUserMessage(text))
	return true
}

// SendMessage starts a multi-modal turn. Parts without any text, image or
// file are a no-op and report false.
func (s *Session) SendMessage(parts []model.ContentPart) bool {
	content := model.PartsContent(parts...)
	if !hasPayload(content) {
		return false
	}
	s.start(model.Message{Role: model.RoleUser, Content: content})
	return true
}

func hasPayload(c model.Content) bool {
	for _, p := range c.Parts {
		switch p.Type {
		case model.PartText:
			if strings.TrimSpace(p.Text) != "" {
				return true
			}
		case model.PartImageURL:
			if p.ImageURL != nil && p.ImageURL.URL != "" {
				return true
			}
		case model.PartFile:
			if p.File != nil {
				return true
			}
		}
	}
	return false
}

// Append adds a complete message without contacting the backend.
func (s *Session) Append(message model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, message.Clone())
	s.mu.Unlock()
	s.notify()
}

// start appends the user turn and the empty assistant placeholder in one
// update, then streams the answer on a separate goroutine.
func (s *Session) start(user model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, user, model.NewEmptyAssistantMessage())
	history := model.CloneMessages(s.messages[:len(s.messages)-1])
	turn, ctx := s.beginTurnLocked()
	s.mu.Unlock()
	s.notify()

	slog.Debug("Starting chat turn", "turn", turn, "history", len(history))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.opts.Transport.Send(ctx, transport.SendOptions{
			Messages:        history,
			Body:            s.opts.Body,
			OnStart:         s.onStart(turn),
			StreamCallbacks: s.callbacks(turn),
			OnFinish:        s.onFinish(turn),
			OnError:         s.onError(turn, -1),
		})
		s.endTurn(turn, err)
	}()
}

// Regenerate redoes the most recent assistant turn in place.
func (s *Session) Regenerate() error {
	s.mu.Lock()
	index := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == model.RoleAssistant {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return app_errors.ErrNothingToRegenerate
	}
	messages := model.CloneMessages(s.messages)
	turn, ctx := s.beginTurnLocked()
	s.mu.Unlock()
	s.notify()

	slog.Debug("Regenerating assistant turn", "turn", turn, "index", index)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.opts.Transport.Regenerate(ctx, transport.RegenerateOptions{
			Messages:        messages,
			AssistantIndex:  index,
			Body:            s.opts.Body,
			SetLoading:      s.setLoading(turn),
			OnStart:         s.onStart(turn),
			StreamCallbacks: s.callbacks(turn),
			OnFinish:        s.onFinish(turn),
			OnError:         s.onError(turn, index),
		})
		s.endTurn(turn, err)
	}()
	return nil
}

// Stop aborts the turn in flight. It is safe to call at any time.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, reader := s.cancel, s.reader
	s.cancel, s.reader = nil, nil
	wasLoading := s.loading
	s.loading = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if reader != nil {
		_ = reader.Close()
	}
	if wasLoading || cancel != nil {
		slog.Info("Chat turn stopped")
		s.notify()
	}
}

// Reset stops any turn in flight and clears the conversation, including its
// saved copy.
func (s *Session) Reset(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	s.turn++
	s.messages = []model.Message{}
	s.reasoning = ""
	s.err = nil
	s.mu.Unlock()
	s.notify()

	if s.opts.Store != nil && s.opts.ConversationID != "" {
		if err := s.opts.Store.DeleteConversation(ctx, s.opts.ConversationID); err != nil {
			return fmt.Errorf("could not delete saved conversation: %w", err)
		}
	}
	return nil
}

// Wait blocks until every started turn has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close stops the turn in flight and waits for it to return.
func (s *Session) Close() {
	s.Stop()
	s.Wait()
}

func (s *Session) beginTurnLocked() (uint64, context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	s.turn++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.reader = nil
	s.loading = true
	s.reasoning = ""
	s.err = nil
	return s.turn, ctx
}

// endTurn releases the resources of turn unless a newer turn replaced it.
func (s *Session) endTurn(turn uint64, err error) {
	s.mu.Lock()
	if s.turn != turn {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel, s.reader = nil, nil
	s.loading = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("Chat turn ended with error", "turn", turn, "error", err)
	}
	s.notify()
}

func (s *Session) callbacks(turn uint64) transport.StreamCallbacks {
	return transport.StreamCallbacks{
		Update: func(fn func([]model.Message) []model.Message) {
			s.mu.Lock()
			if s.turn != turn {
				s.mu.Unlock()
				return
			}
			s.messages = fn(s.messages)
			s.mu.Unlock()
			s.notify()
		},
		SetReasoning: func(reasoning string) {
			s.mu.Lock()
			if s.turn == turn {
				s.reasoning = reasoning
			}
			s.mu.Unlock()
		},
	}
}

func (s *Session) onStart(turn uint64) func(io.ReadCloser) {
	return func(body io.ReadCloser) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.turn == turn && s.cancel != nil {
			s.reader = body
		}
	}
}

func (s *Session) setLoading(turn uint64) func(bool) {
	return func(loading bool) {
		s.mu.Lock()
		if s.turn != turn || s.loading == loading {
			s.mu.Unlock()
			return
		}
		s.loading = loading
		s.mu.Unlock()
		s.notify()
	}
}

// onFinish saves the conversation and hands the live last message, read at
// completion time, to the caller when it is an assistant answer.
func (s *Session) onFinish(turn uint64) func() {
	return func() {
		s.mu.Lock()
		if s.turn != turn || len(s.messages) == 0 {
			s.mu.Unlock()
			return
		}
		s.loading = false
		last := s.messages[len(s.messages)-1].Clone()
		saved := model.CloneMessages(s.messages)
		s.mu.Unlock()
		s.notify()

		s.save(saved)
		if s.opts.OnFinish != nil && last.Role == model.RoleAssistant {
			s.opts.OnFinish(last)
		}
	}
}

// onError clears loading, records err and, for connection-class failures,
// puts an error bubble in place of the assistant turn: at target when
// regenerating, otherwise over a trailing empty placeholder or appended.
func (s *Session) onError(turn uint64, target int) func(error) {
	return func(err error) {
		s.mu.Lock()
		if s.turn != turn {
			s.mu.Unlock()
			return
		}
		s.loading = false
		s.err = err
		if transport.IsNetworkError(err) {
			s.messages = withErrorBubble(s.messages, target, s.opts.ErrorMessage)
		}
		s.mu.Unlock()
		s.notify()

		slog.Warn("Chat turn failed", "turn", turn, "error", err, "network", transport.IsNetworkError(err))
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	}
}

func withErrorBubble(messages []model.Message, target int, text string) []model.Message {
	bubble := model.Message{Role: model.RoleAssistant, Content: model.TextContent(text), Sources: []model.Source{}, IsError: true}

	updated := make([]model.Message, len(messages), len(messages)+1)
	copy(updated, messages)

	if target >= 0 && target < len(updated) && updated[target].Role == model.RoleAssistant {
		updated[target] = bubble
		return updated
	}
	if n := len(updated); n > 0 && updated[n-1].Role == model.RoleAssistant && updated[n-1].Content.IsEmpty() {
		updated[n-1] = bubble
		return updated
	}
	return append(updated, bubble)
}

func (s *Session) save(messages []model.Message) {
	if s.opts.Store == nil || s.opts.ConversationID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.opts.Store.SaveMessages(ctx, s.opts.ConversationID, messages); err != nil {
		slog.Error("Could not save conversation", "conversation_id", s.opts.ConversationID, "error", err)
	}
}

func (s *Session) snapshotLocked() State {
	state := State{
		Messages:  model.CloneMessages(s.messages),
		Loading:   s.loading,
		Reasoning: s.reasoning,
	}
	if s.err != nil {
		state.Error = s.err.Error()
	}
	return state
}

func (s *Session) notify() {
	if s.changes.Len() == 0 {
		return
	}
	s.changes.Publish(s.Snapshot())
}
