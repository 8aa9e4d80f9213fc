package interfaces

import (
	"context"
	"io"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/chat"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// This file defines the interfaces the bridge depends on. The concrete
// implementations are chat.Session, canvas.Registry, auth.Client and
// transport.Client; handlers are tested against the mocks in ./mocks.

// ChatSession is the conversation owner driven by the local UI.
type ChatSession interface {
	Snapshot() chat.State
	Submit(text string) bool
	SendMessage(parts []model.ContentPart) bool
	Append(message model.Message)
	Stop()
	Regenerate() error
	Reset(ctx context.Context) error
	Subscribe(fn func(chat.State)) (unsubscribe func())
}

// CanvasRegistry is the store of auxiliary render items.
type CanvasRegistry interface {
	Add(canvasType canvas.Type, source string) (canvas.Item, bool)
	AddFilePreview(fileName, url string, fileType canvas.FileType, totalPages int) canvas.Item
	Toggle(id string) (canvas.Item, bool)
	Remove(id string) bool
	GetAll() []canvas.Item
	Clear()
	Subscribe(fn func(canvas.Item)) (unsubscribe func())
	SubscribeToolStatus(fn func(canvas.ToolStatus)) (unsubscribe func())
}

// AuthService logs the user in and out of the agent backend.
type AuthService interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
	Logout(ctx context.Context) error
}

// AgentService covers the auxiliary backend endpoints and uploads.
type AgentService interface {
	ListAssistants(ctx context.Context) (*model.AssistantList, error)
	SwitchAssistant(ctx context.Context, assistantID string) error
	ListTools(ctx context.Context) ([]model.Tool, error)
	DeleteTool(ctx context.Context, name string) error
	Upload(ctx context.Context, fileName string, content io.Reader) (*model.UploadResponse, error)
}
