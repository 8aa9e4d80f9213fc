package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ConcealedGem/versa-chat-view/internal/app"
	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

func init() {
	askCmd.Flags().StringArrayP("file", "f", nil, "attach a file or image (repeatable)")
	askCmd.Flags().Bool("new", false, "start a new conversation")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Send one message and print the streamed answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	out := &syncWriter{w: cmd.OutOrStdout()}

	p := newPrompter(os.Stdin, cmd.ErrOrStderr())
	removeListener := a.Auth.AddListener(p.loginListener(ctx, a.Login, stop))
	defer removeListener()

	unsubscribe := a.Canvas.Subscribe(func(item canvas.Item) {
		text, err := renderer.CanvasItem(item)
		if err != nil || text == "" {
			return
		}
		out.print(text)
	})
	defer unsubscribe()

	if fresh, _ := cmd.Flags().GetBool("new"); fresh {
		if err := a.Session.Reset(ctx); err != nil {
			return fmt.Errorf("could not reset conversation: %w", err)
		}
		a.Canvas.Clear()
	}

	files, _ := cmd.Flags().GetStringArray("file")
	question := strings.Join(args, " ")
	if !submit(ctx, a, question, files) {
		return fmt.Errorf("nothing to send")
	}

	go func() {
		<-ctx.Done()
		a.Session.Stop()
	}()
	a.Session.Wait()

	messages := a.Session.Messages()
	if n := len(messages); n > 0 && messages[n-1].Role == model.RoleAssistant {
		out.print(renderer.Message(messages[n-1]))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return a.Session.Err()
}

// submit starts the turn, attaching files as inline images or uploads.
func submit(ctx context.Context, a *app.App, question string, files []string) bool {
	if len(files) == 0 {
		return a.Session.Submit(question)
	}

	var parts []model.ContentPart
	if strings.TrimSpace(question) != "" {
		parts = append(parts, model.ContentPart{Type: model.PartText, Text: question})
	}
	for _, path := range files {
		part, err := attachment(ctx, a.Client, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", path, err)
			continue
		}
		parts = append(parts, part)
	}
	return a.Session.SendMessage(parts)
}

func attachment(ctx context.Context, client *transport.Client, path string) (model.ContentPart, error) {
	partType, err := transport.DetectPartType(path)
	if err != nil {
		return model.ContentPart{}, err
	}
	if partType == model.PartImageURL {
		data, err := os.ReadFile(path)
		if err != nil {
			return model.ContentPart{}, err
		}
		return transport.BuildImagePart(data)
	}
	return client.UploadFile(ctx, path)
}

// syncWriter serializes output from the canvas listener and the main flow.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, text)
}
