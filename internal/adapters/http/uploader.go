package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

const (
	// DefaultUploadPath is the diagnosis endpoint path.
	DefaultUploadPath = "/upload_audio"

	// AudioField is the multipart field carrying the clip.
	AudioField = "audio_data"

	// ThemeField carries the client's UI theme name.
	ThemeField = "theme"

	clipFilename = "recording.wav"

	// maxErrorBody bounds how much of a rejected reply is kept for logging.
	maxErrorBody = 512
)

// UploaderConfig configures the HTTP uploader.
type UploaderConfig struct {
	ServerURL  string
	UploadPath string
	Theme      string
	UserAgent  string
}

// Uploader implements ports.Uploader over multipart HTTP.
type Uploader struct {
	cfg    UploaderConfig
	client ports.HTTPClient
	logger ports.Logger
}

// NewUploader creates a new HTTP uploader.
func NewUploader(cfg UploaderConfig, client ports.HTTPClient, logger ports.Logger) *Uploader {
	if cfg.UploadPath == "" {
		cfg.UploadPath = DefaultUploadPath
	}
	return &Uploader{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// URL returns the full endpoint URL.
func (u *Uploader) URL() string {
	return u.cfg.ServerURL + u.cfg.UploadPath
}

// Upload posts the clip and decodes the JSON reply.
func (u *Uploader) Upload(ctx context.Context, blob domain.Blob) (domain.UploadResponse, error) {
	var resp domain.UploadResponse

	body, contentType, err := u.buildMultipart(blob)
	if err != nil {
		return resp, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL(), body)
	if err != nil {
		return resp, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if u.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", u.cfg.UserAgent)
	}

	start := time.Now()
	httpResp, err := u.client.Do(req)
	if err != nil {
		return resp, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	u.logger.Debug("upload response",
		ports.Int("status", httpResp.StatusCode),
		ports.Int("bytes", blob.Size()),
		ports.Duration("took", time.Since(start)),
	)

	if httpResp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return resp, fmt.Errorf("%w: server returned %d: %s", domain.ErrUploadStatus, httpResp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return domain.UploadResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	return resp, nil
}

func (u *Uploader) buildMultipart(blob domain.Blob) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	contentType := blob.ContentType
	if contentType == "" {
		contentType = domain.WAVContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, AudioField, clipFilename))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create audio field: %w", err)
	}
	if _, err := part.Write(blob.Data); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}

	if u.cfg.Theme != "" {
		if err := writer.WriteField(ThemeField, u.cfg.Theme); err != nil {
			return nil, "", fmt.Errorf("write theme field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
