package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// fakeStream is a capture stream fed by the test.
type fakeStream struct {
	format domain.AudioFormat
	feed   chan domain.Chunk
	fail   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		format: domain.DefaultFormat,
		feed:   make(chan domain.Chunk),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (s *fakeStream) Format() domain.AudioFormat { return s.format }

func (s *fakeStream) Read() (domain.Chunk, error) {
	select {
	case <-s.closed:
		return nil, domain.ErrStreamClosed
	case err := <-s.fail:
		return nil, err
	case c := <-s.feed:
		return c, nil
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// fakeMic hands out streams from a queue, or refuses with err.
type fakeMic struct {
	mu      sync.Mutex
	err     error
	streams []*fakeStream
	gate    chan struct{}
	opens   atomic.Int32
	// ignoreCtx makes Open wait for gate even after cancellation,
	// like a device driver call that cannot be interrupted.
	ignoreCtx bool
}

func (m *fakeMic) Open(ctx context.Context) (ports.CaptureStream, error) {
	m.opens.Add(1)
	if m.gate != nil && m.ignoreCtx {
		<-m.gate
	} else if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.streams) == 0 {
		return nil, domain.ErrMicrophoneUnavailable
	}
	s := m.streams[0]
	m.streams = m.streams[1:]
	return s, nil
}

// manualTicker is advanced by the test.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

type tickerSource struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (s *tickerSource) New(d time.Duration) ports.Ticker {
	t := &manualTicker{ch: make(chan time.Time)}
	s.mu.Lock()
	s.tickers = append(s.tickers, t)
	s.mu.Unlock()
	return t
}

func (s *tickerSource) last() *manualTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tickers) == 0 {
		return nil
	}
	return s.tickers[len(s.tickers)-1]
}

// fakeEncoder records the sample count of every clip it assembles.
type fakeEncoder struct {
	mu      sync.Mutex
	samples []int
	err     error
}

func (e *fakeEncoder) Encode(clip *domain.Clip) (domain.Blob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return domain.Blob{}, e.err
	}
	e.samples = append(e.samples, clip.Samples())
	return domain.Blob{Data: []byte("RIFF"), ContentType: domain.WAVContentType, Duration: clip.Duration()}, nil
}

func (e *fakeEncoder) encoded() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int{}, e.samples...)
}

// fakeUploader replies with resp/err, optionally waiting for release.
type fakeUploader struct {
	resp    domain.UploadResponse
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (u *fakeUploader) Upload(ctx context.Context, blob domain.Blob) (domain.UploadResponse, error) {
	u.calls.Add(1)
	if u.release != nil {
		select {
		case <-u.release:
		case <-ctx.Done():
			return domain.UploadResponse{}, ctx.Err()
		}
	}
	return u.resp, u.err
}

// fakeView records everything the session renders.
type fakeView struct {
	mu         sync.Mutex
	timer      []string
	errors     []string
	pending    []string
	outcomes   []domain.Outcome
	panels     int
	recording  bool
	recordingN int
}

func (v *fakeView) ShowRecordingPanel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panels++
}

func (v *fakeView) SetRecording(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recording = active
	v.recordingN++
}

func (v *fakeView) UpdateTimer(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timer = append(v.timer, text)
}

func (v *fakeView) ShowInlineError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, msg)
}

func (v *fakeView) ShowPending(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(v.pending, msg)
}

func (v *fakeView) ShowOutcome(o domain.Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outcomes = append(v.outcomes, o)
}

func (v *fakeView) lastTimer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.timer) == 0 {
		return ""
	}
	return v.timer[len(v.timer)-1]
}

func (v *fakeView) inlineErrors() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string{}, v.errors...)
}

func (v *fakeView) shownOutcomes() []domain.Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Outcome{}, v.outcomes...)
}

func (v *fakeView) panelCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.panels
}

func (v *fakeView) isRecording() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recording
}

// memObjects is an in-memory ports.ObjectStore.
type memObjects struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func (m *memObjects) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[key] = data
	return "mem://" + key, nil
}

// memHistory is an in-memory ports.HistoryStore.
type memHistory struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
	saved   chan domain.HistoryRecord
}

func newMemHistory() *memHistory {
	return &memHistory{saved: make(chan domain.HistoryRecord, 8)}
}

func (h *memHistory) Save(ctx context.Context, rec domain.HistoryRecord) error {
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	h.saved <- rec
	return nil
}

func (h *memHistory) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.HistoryRecord{}, h.records...), nil
}

func (h *memHistory) Delete(ctx context.Context, userID, id string) error {
	return domain.ErrRecordNotFound
}
