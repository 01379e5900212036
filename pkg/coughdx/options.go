package coughdx

import (
	"net/http"

	logAdapter "github.com/ngt-labs/coughdx/internal/adapters/log"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Re-exported port types so callers can plug in their own adapters.
type (
	// HTTPClient is satisfied by *http.Client.
	HTTPClient = ports.HTTPClient

	// Logger is the structured logging interface.
	Logger = ports.Logger

	// LogField is a structured log field.
	LogField = ports.Field

	// View renders the recording and result panels.
	View = ports.View

	// Microphone opens capture streams.
	Microphone = ports.Microphone

	// ObjectStore keeps uploaded clips.
	ObjectStore = ports.ObjectStore

	// HistoryStore persists diagnosis history.
	HistoryStore = ports.HistoryStore

	// TickerFactory creates the elapsed-time ticker of a session.
	TickerFactory = ports.TickerFactory
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	view         ports.View
	mic          ports.Microphone
	objects      ports.ObjectStore
	history      ports.HistoryStore
	eventHandler EventHandler
	newTicker    ports.TickerFactory
}

func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     logAdapter.NewNoopLogger(),
	}
}

// WithHTTPClient sets a custom HTTP client for uploads.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithView sets where panels are rendered. Defaults to a terminal view on
// stdout.
func WithView(view View) Option {
	return func(o *options) {
		o.view = view
	}
}

// WithMicrophone replaces the capture device chosen from Config.
func WithMicrophone(mic Microphone) Option {
	return func(o *options) {
		o.mic = mic
	}
}

// WithObjectStore stores every diagnosed clip. Requires Config.UserID.
func WithObjectStore(store ObjectStore) Option {
	return func(o *options) {
		o.objects = store
	}
}

// WithHistoryStore records every diagnosis. Requires Config.UserID.
func WithHistoryStore(store HistoryStore) Option {
	return func(o *options) {
		o.history = store
	}
}

// WithEventHandler sets a handler for session state changes.
// Events are called synchronously from the session loop.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithTickerFactory replaces the wall-clock timer of new sessions.
func WithTickerFactory(f TickerFactory) Option {
	return func(o *options) {
		o.newTicker = f
	}
}
