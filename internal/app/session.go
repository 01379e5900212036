package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// ClipEncoder assembles a finished clip into an uploadable blob.
type ClipEncoder interface {
	Encode(clip *domain.Clip) (domain.Blob, error)
}

// SessionConfig holds the tunables of a Session.
type SessionConfig struct {
	// ID identifies the session in logs.
	ID string

	// TimerInterval is the elapsed-display resolution. Defaults to one second.
	TimerInterval time.Duration

	// NewTicker creates the display timer. Defaults to NewTimeTicker.
	NewTicker ports.TickerFactory
}

type eventKind int

const (
	evToggle eventKind = iota
	evReset
	evMicOpened
	evChunk
	evCaptureDone
	evUploadDone
)

type event struct {
	kind    eventKind
	gen     uint64
	stream  ports.CaptureStream
	chunk   domain.Chunk
	outcome domain.Outcome
	err     error
}

// Session is one recording panel: capture, upload, display, reset.
//
// All session fields below the lifecycle are owned by the Run loop.
// Device access, capture and upload run on their own goroutines and report
// back through the events channel. mu only orders posts against shutdown.
type Session struct {
	cfg       SessionConfig
	mic       ports.Microphone
	encoder   ClipEncoder
	submitter *Submitter
	view      ports.View
	logger    ports.Logger
	lifecycle *Lifecycle

	events  chan event
	closing chan struct{}
	done    chan struct{}
	running atomic.Bool

	mu     sync.RWMutex
	closed bool

	// loop-owned
	gen       uint64
	acquiring bool
	draining  bool
	stream    ports.CaptureStream
	clip      *domain.Clip
	ticker    ports.Ticker
	elapsed   int
}

// NewSession creates a session in Idle. observer may be nil.
func NewSession(cfg SessionConfig, mic ports.Microphone, encoder ClipEncoder, submitter *Submitter,
	view ports.View, logger ports.Logger, observer StateObserver) *Session {
	if cfg.TimerInterval <= 0 {
		cfg.TimerInterval = TimerInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	return &Session{
		cfg:       cfg,
		mic:       mic,
		encoder:   encoder,
		submitter: submitter,
		view:      view,
		logger:    logger,
		lifecycle: NewLifecycle(logger, observer),
		events:    make(chan event, 64),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.cfg.ID
}

// State returns the current state. Safe for concurrent use.
func (s *Session) State() domain.SessionState {
	return s.lifecycle.State()
}

// Toggle starts a recording when Idle and stops it when Recording.
// It has no effect while uploading or showing a result.
func (s *Session) Toggle() error {
	return s.post(event{kind: evToggle})
}

// Reset returns from the result panel to the recording panel.
// It has no effect in any other state.
func (s *Session) Reset() error {
	return s.post(event{kind: evReset})
}

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run processes session events until ctx is cancelled. A session can be run
// once; the microphone and timer are released on return.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}
	defer close(s.done)
	defer s.shutdown()

	s.view.ShowRecordingPanel()
	s.view.UpdateTimer(FormatElapsed(0))

	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.C()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.elapsed++
			s.view.UpdateTimer(FormatElapsed(s.elapsed))
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

// post delivers an event to the loop, failing once the loop is shutting down.
// An event accepted here is either handled or drained by shutdown.
func (s *Session) post(ev event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.closing:
		return domain.ErrSessionClosed
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evToggle:
		s.onToggle(ctx)
	case evReset:
		s.onReset()
	case evMicOpened:
		s.onMicOpened(ev)
	case evChunk:
		if ev.gen == s.gen && s.clip != nil {
			s.clip.Add(ev.chunk)
		}
	case evCaptureDone:
		s.onCaptureDone(ctx, ev)
	case evUploadDone:
		s.onUploadDone(ev)
	}
}

func (s *Session) onToggle(ctx context.Context) {
	switch s.State() {
	case domain.StateIdle:
		if s.acquiring {
			s.logger.Debug("toggle ignored, microphone request pending")
			return
		}
		s.acquiring = true
		s.gen++
		go s.openMicrophone(ctx, s.gen)
	case domain.StateRecording:
		s.stopRecording()
	default:
		s.logger.Debug("toggle ignored", ports.String("state", s.State().String()))
	}
}

func (s *Session) openMicrophone(ctx context.Context, gen uint64) {
	stream, err := s.mic.Open(ctx)
	if err == nil && ctx.Err() != nil {
		// Granted after cancellation; the loop may already be gone.
		stream.Close()
		stream, err = nil, ctx.Err()
	}
	if postErr := s.post(event{kind: evMicOpened, gen: gen, stream: stream, err: err}); postErr != nil && stream != nil {
		stream.Close()
	}
}

func (s *Session) onMicOpened(ev event) {
	if ev.gen != s.gen || !s.acquiring {
		if ev.stream != nil {
			ev.stream.Close()
		}
		return
	}
	s.acquiring = false

	if ev.err != nil {
		s.logger.Warn("microphone unavailable", ports.Err(ev.err))
		s.view.ShowInlineError(domain.MicrophoneErrorMessage)
		return
	}

	if err := s.lifecycle.TransitionTo(domain.StateRecording, "microphone granted"); err != nil {
		ev.stream.Close()
		s.logger.Error("start recording", ports.Err(err))
		return
	}
	s.stream = ev.stream
	s.clip = domain.NewClip(ev.stream.Format())
	s.elapsed = 0
	s.ticker = s.cfg.NewTicker(s.cfg.TimerInterval)

	s.view.SetRecording(true)
	s.view.UpdateTimer(FormatElapsed(0))

	go s.capture(ev.gen, ev.stream)
}

// capture forwards chunks until the stream is closed or fails.
func (s *Session) capture(gen uint64, stream ports.CaptureStream) {
	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, domain.ErrStreamClosed) {
				err = nil
			}
			_ = s.post(event{kind: evCaptureDone, gen: gen, err: err})
			return
		}
		if s.post(event{kind: evChunk, gen: gen, chunk: chunk}) != nil {
			return
		}
	}
}

func (s *Session) stopRecording() {
	s.stopTimer()
	s.releaseStream()
	if err := s.lifecycle.TransitionTo(domain.StateUploading, "recording stopped"); err != nil {
		s.logger.Error("stop recording", ports.Err(err))
		return
	}
	s.draining = true
	s.view.SetRecording(false)
	s.view.ShowPending(domain.PendingMessage)
}

func (s *Session) onCaptureDone(ctx context.Context, ev event) {
	if ev.gen != s.gen {
		return
	}

	switch s.State() {
	case domain.StateRecording:
		// The device went away before the user stopped.
		s.logger.Warn("capture ended unexpectedly", ports.Err(ev.err))
		s.stopTimer()
		s.releaseStream()
		s.clip = nil
		s.elapsed = 0
		if err := s.lifecycle.TransitionTo(domain.StateIdle, "device failure"); err != nil {
			s.logger.Error("abort recording", ports.Err(err))
		}
		s.view.SetRecording(false)
		s.view.UpdateTimer(FormatElapsed(0))
		s.view.ShowInlineError(domain.MicrophoneErrorMessage)

	case domain.StateUploading:
		if !s.draining {
			return
		}
		s.draining = false
		if ev.err != nil {
			s.logger.Warn("capture stopped with error", ports.Err(ev.err))
		}
		clip := s.clip
		s.clip = nil
		go s.upload(ctx, ev.gen, clip)
	}
}

func (s *Session) upload(ctx context.Context, gen uint64, clip *domain.Clip) {
	blob, err := s.encoder.Encode(clip)
	var outcome domain.Outcome
	if err != nil {
		s.logger.Warn("assemble clip", ports.Err(err))
		outcome = domain.Outcome{Kind: domain.OutcomeAnalysisFailed, Message: domain.AnalysisFailedMessage}
	} else {
		outcome = s.submitter.Submit(ctx, blob)
	}
	_ = s.post(event{kind: evUploadDone, gen: gen, outcome: outcome})
}

func (s *Session) onUploadDone(ev event) {
	if ev.gen != s.gen || s.State() != domain.StateUploading {
		return
	}
	if err := s.lifecycle.TransitionTo(domain.StateResultShown, "upload finished: "+ev.outcome.Kind.String()); err != nil {
		s.logger.Error("show result", ports.Err(err))
		return
	}
	s.view.ShowOutcome(ev.outcome)
}

func (s *Session) onReset() {
	if s.State() != domain.StateResultShown {
		s.logger.Debug("reset ignored", ports.String("state", s.State().String()))
		return
	}
	if err := s.lifecycle.TransitionTo(domain.StateIdle, "diagnose again"); err != nil {
		s.logger.Error("reset", ports.Err(err))
		return
	}
	s.clip = nil
	s.elapsed = 0
	s.view.UpdateTimer(FormatElapsed(0))
	s.view.ShowRecordingPanel()
}

func (s *Session) stopTimer() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) releaseStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.logger.Warn("release microphone", ports.Err(err))
	}
	s.stream = nil
}

func (s *Session) shutdown() {
	close(s.closing)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stopTimer()
	s.releaseStream()
	s.clip = nil

	for {
		select {
		case ev := <-s.events:
			if ev.stream != nil {
				ev.stream.Close()
			}
		default:
			return
		}
	}
}
