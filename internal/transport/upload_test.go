package transport_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type uploadCapture struct {
	authorization string
	fileName      string
	contentType   string
	content       string
}

func uploadServer(t *testing.T, response string, capture *uploadCapture, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !assert.Equal(t, "/api/upload", r.URL.Path) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		capture.authorization = r.Header.Get("Authorization")
		capture.fileName = header.Filename
		capture.contentType = header.Header.Get("Content-Type")
		capture.content = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, response)
	}))
}

func tokenStore(t *testing.T) repository.Repository {
	t.Helper()
	store := repository.NewMemoryRepository()
	require.NoError(t, store.SetItem(context.Background(), repository.KeyToken, "tok"))
	return store
}

func TestClient_Upload(t *testing.T) {
	t.Run("Success - Sends multipart file field", func(t *testing.T) {
		var capture uploadCapture
		var hits atomic.Int32
		server := uploadServer(t, `{"file-name":"notes.txt","file-path":"/files/u1/notes.txt","file-size-kb":0.01}`, &capture, &hits)
		defer server.Close()

		client := transport.NewClient(transport.Options{BaseURL: server.URL, Storage: tokenStore(t)})

		result, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("hello upload\n"))

		require.NoError(t, err)
		assert.Equal(t, "notes.txt", result.FileName)
		assert.Equal(t, "/files/u1/notes.txt", result.FilePath)
		require.NotNil(t, result.FileSizeKB)
		assert.InDelta(t, 0.01, *result.FileSizeKB, 1e-9)

		assert.Equal(t, "Bearer tok", capture.authorization)
		assert.Equal(t, "notes.txt", capture.fileName)
		assert.True(t, strings.HasPrefix(capture.contentType, "text/plain"), capture.contentType)
		assert.Equal(t, "hello upload\n", capture.content)
	})

	t.Run("Failure - No token means no request", func(t *testing.T) {
		var capture uploadCapture
		var hits atomic.Int32
		server := uploadServer(t, `{}`, &capture, &hits)
		defer server.Close()

		client := transport.NewClient(transport.Options{BaseURL: server.URL, Storage: repository.NewMemoryRepository()})

		_, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("x"))

		assert.ErrorIs(t, err, app_errors.ErrNoToken)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("Failure - Server returned invalid JSON", func(t *testing.T) {
		var capture uploadCapture
		var hits atomic.Int32
		server := uploadServer(t, `<html>oops</html>`, &capture, &hits)
		defer server.Close()

		client := transport.NewClient(transport.Options{BaseURL: server.URL, Storage: tokenStore(t)})

		_, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("x"))

		assert.ErrorContains(t, err, "server returned invalid JSON")
	})

	t.Run("Failure - Non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}))
		defer server.Close()

		client := transport.NewClient(transport.Options{BaseURL: server.URL, Storage: tokenStore(t)})

		_, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("x"))

		var httpErr *transport.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.StatusCode)
	})
}

func TestClient_UploadFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(small, []byte("# Notes\n\nsome text\n"), 0o600))

	t.Run("Success - Small document gets a local preview", func(t *testing.T) {
		var capture uploadCapture
		var hits atomic.Int32
		server := uploadServer(t, `{"file-name":"notes.md","file-path":"/files/notes.md"}`, &capture, &hits)
		defer server.Close()

		registry := canvas.NewRegistry(nil)
		client := transport.NewClient(transport.Options{BaseURL: server.URL, Storage: tokenStore(t), Canvas: registry})

		part, err := client.UploadFile(context.Background(), small)

		require.NoError(t, err)
		assert.Equal(t, model.PartFile, part.Type)
		require.NotNil(t, part.File)
		assert.Equal(t, "notes.md", part.File.Name)
		assert.Equal(t, "/files/notes.md", part.File.URL)

		items := registry.GetAll()
		require.Len(t, items, 1)
		assert.Equal(t, canvas.TypeFilePreview, items[0].Type)
		assert.Equal(t, canvas.LocalFilePrefix+"notes.md", items[0].Source)
		assert.Equal(t, canvas.FileMarkdown, items[0].FileType)
	})

	t.Run("Success - Oversized document gets a notice instead", func(t *testing.T) {
		var capture uploadCapture
		var hits atomic.Int32
		server := uploadServer(t, `{"file-name":"notes.md","file-path":"/files/notes.md"}`, &capture, &hits)
		defer server.Close()

		registry := canvas.NewRegistry(nil)
		client := transport.NewClient(transport.Options{
			BaseURL:          server.URL,
			Storage:          tokenStore(t),
			Canvas:           registry,
			PreviewSizeLimit: 4,
		})

		_, err := client.UploadFile(context.Background(), small)

		require.NoError(t, err)
		items := registry.GetAll()
		require.Len(t, items, 1)
		assert.Equal(t, canvas.TypeHTML, items[0].Type)
		assert.Contains(t, items[0].Source, "local preview was skipped")
		assert.Contains(t, items[0].Source, "notes.md")
		assert.Equal(t, int32(1), hits.Load(), "the file is still uploaded")
	})

	t.Run("Failure - Directory is rejected", func(t *testing.T) {
		client := transport.NewClient(transport.Options{BaseURL: "http://127.0.0.1:1", Storage: tokenStore(t)})

		_, err := client.UploadFile(context.Background(), dir)

		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})
}

func TestBuildFilePart(t *testing.T) {
	size := 12.5
	part := transport.BuildFilePart("local.csv", &model.UploadResponse{
		FileName:   "server.csv",
		FilePath:   "/files/server.csv",
		FileSizeKB: &size,
	})

	assert.Equal(t, model.PartFile, part.Type)
	assert.Equal(t, "server.csv", part.File.Name)
	assert.Equal(t, "/files/server.csv", part.File.URL)
	assert.Equal(t, &size, part.File.FileSizeKB)

	fallback := transport.BuildFilePart("local.csv", &model.UploadResponse{FilePath: "/x"})
	assert.Equal(t, "local.csv", fallback.File.Name)
}

func TestBuildImagePart(t *testing.T) {
	t.Run("Success - PNG becomes a data URL", func(t *testing.T) {
		part, err := transport.BuildImagePart(pngHeader)

		require.NoError(t, err)
		assert.Equal(t, model.PartImageURL, part.Type)
		require.NotNil(t, part.ImageURL)
		assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngHeader), part.ImageURL.URL)
	})

	t.Run("Failure - Not an image", func(t *testing.T) {
		_, err := transport.BuildImagePart([]byte("just text"))
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})

	t.Run("Failure - Too large", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, transport.MaxImageSize)...)
		_, err := transport.BuildImagePart(big)
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})
}

func TestDetectPartType(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pic.png")
	doc := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o600))
	require.NoError(t, os.WriteFile(doc, []byte("plain text"), 0o600))

	got, err := transport.DetectPartType(img)
	require.NoError(t, err)
	assert.Equal(t, model.PartImageURL, got)

	got, err = transport.DetectPartType(doc)
	require.NoError(t, err)
	assert.Equal(t, model.PartFile, got)
}
