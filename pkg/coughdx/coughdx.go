package coughdx

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ngt-labs/coughdx/internal/adapters/audio"
	httpAdapter "github.com/ngt-labs/coughdx/internal/adapters/http"
	"github.com/ngt-labs/coughdx/internal/adapters/term"
	"github.com/ngt-labs/coughdx/internal/app"
	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/inbox"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Outcome is what the result panel shows after an upload.
type Outcome = domain.Outcome

// HistoryRecord is one archived diagnosis.
type HistoryRecord = domain.HistoryRecord

// Config holds the settings of a Client.
type Config struct {
	// ServerURL is the diagnosis server base URL.
	ServerURL string
	// UploadPath is the upload endpoint. Default: /upload_audio.
	UploadPath string
	// Theme is sent with every upload.
	Theme string
	// HTTPTimeout bounds one upload. Default: 60s.
	HTTPTimeout time.Duration

	// SampleRate and Channels select the capture format. Default: 16kHz mono.
	SampleRate int
	Channels   int
	// ChunkDuration is the length of one capture read. Default: 250ms.
	ChunkDuration time.Duration
	// InputFile replays a WAV file instead of opening the audio device.
	InputFile string
	// Realtime paces InputFile at its natural speed.
	Realtime bool

	// UserID enables archiving of diagnoses.
	UserID string
	// S3Prefix is the key prefix of archived clips. Default: cough_audio.
	S3Prefix string

	// TempDir is where clips are spooled while encoding. Default: os.TempDir.
	TempDir string
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.UploadPath == "" {
		c.UploadPath = httpAdapter.DefaultUploadPath
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	if c.SampleRate <= 0 {
		c.SampleRate = domain.DefaultFormat.SampleRate
	}
	if c.Channels <= 0 {
		c.Channels = domain.DefaultFormat.Channels
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = audio.DefaultChunkDuration
	}
	if c.S3Prefix == "" {
		c.S3Prefix = "cough_audio"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server URL is required", domain.ErrInvalidConfig)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if !strings.HasPrefix(c.UploadPath, "/") {
		return fmt.Errorf("%w: upload path must start with /", domain.ErrInvalidConfig)
	}
	if strings.Contains(c.UserID, "/") {
		return fmt.Errorf("%w: user id must not contain /", domain.ErrInvalidConfig)
	}
	if c.Channels > 2 {
		return fmt.Errorf("%w: channels must be 1 or 2", domain.ErrInvalidConfig)
	}
	return nil
}

// Client wires capture, upload, rendering and archiving together.
type Client struct {
	config    Config
	opts      options
	mic       ports.Microphone
	view      ports.View
	encoder   *audio.Encoder
	uploader  *httpAdapter.Uploader
	submitter *app.Submitter
	logger    ports.Logger
}

// New creates a Client. Returns an error if cfg is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	mic := o.mic
	if mic == nil {
		format := domain.AudioFormat{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
		if cfg.InputFile != "" {
			mic = audio.NewFileMicrophone(cfg.InputFile, cfg.ChunkDuration, cfg.Realtime)
		} else {
			mic = audio.NewDeviceMicrophone(format, cfg.ChunkDuration)
		}
	}

	view := o.view
	if view == nil {
		view = term.NewView(os.Stdout)
	}

	uploader := httpAdapter.NewUploader(httpAdapter.UploaderConfig{
		ServerURL:  cfg.ServerURL,
		UploadPath: cfg.UploadPath,
		Theme:      cfg.Theme,
	}, o.httpClient, logger)

	if removed, freed, err := audio.CleanupSpool(cfg.TempDir, audio.DefaultSpoolMaxAge, time.Now()); err != nil {
		logger.Warn("spool cleanup", ports.Err(err))
	} else if removed > 0 {
		logger.Info("removed abandoned spool files",
			ports.Int("files", removed),
			ports.String("freed", audio.FormatBytes(freed)))
	}

	var archiver *app.Archiver
	if cfg.UserID != "" && (o.objects != nil || o.history != nil) {
		archiver = app.NewArchiver(cfg.UserID, cfg.S3Prefix, o.objects, o.history, logger)
	}

	return &Client{
		config:    cfg,
		opts:      o,
		mic:       mic,
		view:      view,
		encoder:   audio.NewEncoder(cfg.TempDir),
		uploader:  uploader,
		submitter: app.NewSubmitter(uploader, archiver, logger),
		logger:    logger,
	}, nil
}

// Session is one recording panel driven by Toggle and Reset.
type Session = app.Session

// NewSession creates an idle session. Call Run on it to start processing.
func (c *Client) NewSession() *Session {
	id := uuid.NewString()
	var observer app.StateObserver
	if c.opts.eventHandler != nil {
		observer = &eventEmitterWrapper{sessionID: id, handler: c.opts.eventHandler}
	}
	return app.NewSession(app.SessionConfig{ID: id, NewTicker: c.opts.newTicker},
		c.mic, c.encoder, c.submitter, c.view, c.logger, observer)
}

// Submit uploads an already assembled clip once.
func (c *Client) Submit(ctx context.Context, blob domain.Blob) Outcome {
	return c.submitter.Submit(ctx, blob)
}

// SubmitFile uploads a WAV file and renders the outcome.
func (c *Client) SubmitFile(ctx context.Context, path string) (Outcome, error) {
	blob, err := audio.ReadWAVBlob(path)
	if err != nil {
		return Outcome{}, err
	}
	c.view.ShowPending(domain.PendingMessage)
	outcome := c.submitter.Submit(ctx, blob)
	c.view.ShowOutcome(outcome)
	return outcome, nil
}

// Watch submits every WAV file written to dir until ctx is cancelled.
func (c *Client) Watch(ctx context.Context, dir string) error {
	return inbox.NewWatcher(dir, c.submitter, c.view, c.logger).Run(ctx)
}

// UploadURL returns the endpoint clips are posted to.
func (c *Client) UploadURL() string {
	return c.uploader.URL()
}

// Wait blocks until background archiving has finished.
func (c *Client) Wait() {
	c.submitter.Wait()
}
