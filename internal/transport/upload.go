package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

const (
	// DefaultPreviewSizeLimit caps files previewed locally before upload.
	DefaultPreviewSizeLimit = 5 * 1024 * 1024
	// MaxUploadSize caps files sent to the upload endpoint.
	MaxUploadSize = 50 * 1024 * 1024
	// MaxImageSize caps images inlined into a message as data URLs.
	MaxImageSize = 2 * 1024 * 1024
)

// Upload sends one file to POST /api/upload as the multipart "file" field.
// A stored token is required; without one the request is not sent and
// ErrNoToken is returned.
func (c *Client) Upload(ctx context.Context, fileName string, content io.Reader) (*model.UploadResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, app_errors.ErrNoToken
	}

	// Buffer the head of the file for MIME sniffing, then stream the rest.
	head := make([]byte, 3072)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("could not read %s: %w", fileName, err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(fileName)))
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("could not create multipart field: %w", err)
	}
	if _, err := part.Write(head); err != nil {
		return nil, fmt.Errorf("could not write multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", fileName, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("could not create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest("upload", "error")
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordRequest("upload", "error")
		slog.Error("Upload rejected", "file", fileName, "status", resp.StatusCode)
		return nil, &app_errors.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	var result model.UploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.metrics.RecordRequest("upload", "error")
		preview := string(respBody)
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		return nil, fmt.Errorf("server returned invalid JSON: %s: %w", preview, err)
	}

	c.metrics.RecordRequest("upload", "ok")
	slog.Info("File uploaded", "file", fileName, "path", result.FilePath, "content_type", contentType)
	return &result, nil
}

// UploadFile uploads a file from disk and returns the message part that
// references it. Supported document types are first announced on the canvas:
// a local preview within the size limit, otherwise a notice that the preview
// was skipped.
func (c *Client) UploadFile(ctx context.Context, path string) (model.ContentPart, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.ContentPart{}, fmt.Errorf("could not stat %s: %w", path, err)
	}
	if info.IsDir() {
		return model.ContentPart{}, fmt.Errorf("%w: %s is a directory", app_errors.ErrValidation, path)
	}
	if info.Size() > MaxUploadSize {
		return model.ContentPart{}, fmt.Errorf("%w: %s is %s, the limit is %s", app_errors.ErrValidation,
			info.Name(), humanize.IBytes(uint64(info.Size())), humanize.IBytes(MaxUploadSize))
	}

	c.announcePreview(info.Name(), info.Size())

	f, err := os.Open(path)
	if err != nil {
		return model.ContentPart{}, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	result, err := c.Upload(ctx, info.Name(), f)
	if err != nil {
		return model.ContentPart{}, err
	}
	return BuildFilePart(info.Name(), result), nil
}

func (c *Client) announcePreview(name string, size int64) {
	if c.canvas == nil {
		return
	}
	fileType, ok := canvas.FileTypeFromName(name)
	if !ok {
		return
	}
	if size <= c.previewSizeLimit {
		c.canvas.AddFilePreview(name, canvas.LocalFilePrefix+name, fileType, 1)
		return
	}
	slog.Info("Skipping local preview of large file", "file", name, "size", humanize.IBytes(uint64(size)))
	c.canvas.Add(canvas.TypeHTML, largeFileNotice(name, size, c.previewSizeLimit))
}

func largeFileNotice(name string, size, limit int64) string {
	return fmt.Sprintf(`<div class="large-file-notice"><strong>Large file upload</strong>`+
		`<p>File <strong>%s</strong> (%s) exceeds %s, local preview was skipped. `+
		`The file is still uploaded for use in the conversation.</p></div>`,
		html.EscapeString(name), humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))
}

// BuildFilePart converts an upload response into a "file" content part.
// The server's file name and path win over the local name.
func BuildFilePart(localName string, result *model.UploadResponse) model.ContentPart {
	ref := &model.FileRef{Name: localName}
	if result != nil {
		if result.FileName != "" {
			ref.Name = result.FileName
		}
		ref.URL = result.FilePath
		ref.FileSizeKB = result.FileSizeKB
		ref.OriginalName = result.OriginalName
		ref.PublicURL = result.PublicURL
		ref.IsLargeTable = result.IsLargeTable
		ref.DisplayName = result.DisplayName
		ref.UserID = result.UserID
		ref.FileSizeBytes = result.FileSizeBytes
		ref.Message = result.Message
	}
	return model.ContentPart{Type: model.PartFile, File: ref}
}

// BuildImagePart inlines image bytes as a data URL "image_url" part.
func BuildImagePart(data []byte) (model.ContentPart, error) {
	if len(data) > MaxImageSize {
		return model.ContentPart{}, fmt.Errorf("%w: image is %s, the limit is %s", app_errors.ErrValidation,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(MaxImageSize))
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return model.ContentPart{}, fmt.Errorf("%w: not an image (%s)", app_errors.ErrValidation, mt.String())
	}
	url := "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
	return model.ContentPart{Type: model.PartImageURL, ImageURL: &model.ImageURL{URL: url}}, nil
}

// DetectPartType decides whether a local file is sent inline as an image or
// uploaded as a file.
func DetectPartType(path string) (model.PartType, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("could not detect type of %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return model.PartImageURL, nil
		}
	}
	return model.PartFile, nil
}
