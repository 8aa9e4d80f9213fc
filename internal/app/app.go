package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/bridge"
	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/chat"
	"github.com/ConcealedGem/versa-chat-view/internal/config"
	"github.com/ConcealedGem/versa-chat-view/internal/database"
	"github.com/ConcealedGem/versa-chat-view/internal/metrics"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// App holds every long-lived component of the client.
type App struct {
	Config  *config.Config
	DB      *sql.DB // nil with ephemeral storage
	Repo    repository.Repository
	Metrics *metrics.Metrics

	Auth    *auth.Events
	Login   *auth.Client
	Canvas  *canvas.Registry
	Client  *transport.Client
	Session *chat.Session
	Gate    *bridge.LoginGate
	Server  *http.Server
}

type options struct {
	ephemeral bool
}

// Option customizes NewApp.
type Option func(*options)

// WithEphemeralStorage keeps client state in memory instead of SQLite.
func WithEphemeralStorage() Option {
	return func(o *options) { o.ephemeral = true }
}

// NewApp wires the components for cfg. The caller must Close the app.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	if o.ephemeral {
		a.Repo = repository.NewMemoryRepository()
		slog.Info("Using in-memory client storage.")
	} else {
		db, err := database.InitDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		a.Repo = repository.NewSQLiteRepository(db)
		slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)
	}

	a.Metrics = metrics.New()
	a.Auth = auth.NewEvents(a.Metrics)
	a.Canvas = canvas.NewRegistry(a.Metrics)
	a.Login = auth.NewClient(cfg.APIBaseURL, nil, a.Repo)
	a.Client = transport.NewClient(transport.Options{
		BaseURL:          cfg.APIBaseURL,
		StreamPath:       cfg.ChatStreamPath,
		Storage:          a.Repo,
		Auth:             a.Auth,
		Canvas:           a.Canvas,
		Metrics:          a.Metrics,
		PreviewSizeLimit: cfg.PreviewSizeLimit,
	})

	session, err := chat.NewSession(context.Background(), chat.Options{
		Transport:      a.Client,
		Store:          a.Repo,
		ConversationID: cfg.ConversationID,
		Body:           map[string]any{"id": cfg.ConversationID},
		ErrorMessage:   cfg.ErrorMessage,
	})
	if err != nil {
		_ = a.closeDB()
		return nil, err
	}
	a.Session = session

	a.Gate = bridge.NewLoginGate()
	router := bridge.NewRouter(bridge.Handlers{
		Chat:      bridge.NewChatHandler(a.Session, a.Canvas),
		Canvas:    bridge.NewCanvasHandler(a.Canvas),
		Auth:      bridge.NewAuthHandler(a.Login, a.Gate),
		Agent:     bridge.NewAgentHandler(a.Client),
		Events:    bridge.NewEventsHandler(a.Session, a.Canvas, a.Gate),
		Metrics:   a.Metrics.Handler(),
		StaticDir: cfg.StaticDir,
	})

	a.Server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for the event feed
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

// Listen opens the bridge listener on the configured address.
func (a *App) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", a.Server.Addr, err)
	}
	return ln, nil
}

// Serve runs the bridge on ln until ctx is cancelled, then shuts it down
// and stops the conversation turn in flight. While serving, the bridge is the
// login listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	removeListener := a.Auth.AddListener(a.Gate.Listen)
	defer removeListener()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting bridge", "addr", ln.Addr().String())
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down bridge")
		a.Session.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close stops the session and releases storage.
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Close()
	}
	return a.closeDB()
}

func (a *App) closeDB() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
		return err
	}
	return nil
}

// Bootstrap loads the configuration, installs the logger and builds the
// app. CLI one-shots log as text on stderr; the bridge logs JSON on stdout.
func Bootstrap(cli bool, opts ...Option) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cli {
		setupLogger(cfg.LogLevel, os.Stderr, false)
	} else {
		setupLogger(cfg.LogLevel, os.Stdout, true)
	}
	logConfigSource()

	return NewApp(cfg, opts...)
}

// Run starts the bridge and blocks until SIGINT or SIGTERM. It returns the
// process exit code.
func Run(opts ...Option) int {
	a, err := Bootstrap(false, opts...)
	if err != nil {
		// slog may not be configured yet.
		slog.Error("Failed to start", "error", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkBackend(ctx, a.Config.APIBaseURL, 3, 2*time.Second)

	ln, err := a.Listen()
	if err != nil {
		slog.Error("Failed to open listener", "error", err)
		return 1
	}
	if err := a.Serve(ctx, ln); err != nil {
		slog.Error("Server failed", "error", err)
		return 1
	}
	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string, w io.Writer, jsonOutput bool) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if jsonOutput {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// checkBackend reports whether the agent backend answers. The bridge starts
// regardless, since the backend may come up later.
func checkBackend(ctx context.Context, baseURL string, attempts int, pause time.Duration) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	for i := 1; i <= attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			slog.Warn("Invalid agent backend URL", "url", baseURL, "error", err)
			return false
		}
		resp, err := client.Do(req)
		if err == nil {
			if bErr := resp.Body.Close(); bErr != nil {
				slog.Warn("Failed to close response body in backend check", "error", bErr)
			}
			slog.Info("Agent backend is reachable.", "url", baseURL, "status", resp.StatusCode)
			return true
		}
		slog.Debug("Agent backend not reachable yet", "url", baseURL, "attempt", i, "error", err)

		if i < attempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(pause):
			}
		}
	}
	slog.Warn("Agent backend is not reachable, starting anyway.", "url", baseURL)
	return false
}
