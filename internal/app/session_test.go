package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngt-labs/coughdx/internal/domain"
)

const (
	waitFor = 2 * time.Second
	pollAt  = 5 * time.Millisecond
	quiet   = 100 * time.Millisecond
)

type sessionHarness struct {
	s      *Session
	mic    *fakeMic
	enc    *fakeEncoder
	up     *fakeUploader
	view   *fakeView
	ticks  *tickerSource
	obs    *mockObserver
	cancel context.CancelFunc
	runErr chan error
}

func startSession(t *testing.T, mic *fakeMic, up *fakeUploader) *sessionHarness {
	t.Helper()
	h := &sessionHarness{
		mic:    mic,
		enc:    &fakeEncoder{},
		up:     up,
		view:   &fakeView{},
		ticks:  &tickerSource{},
		obs:    newMockObserver(),
		runErr: make(chan error, 1),
	}
	submitter := NewSubmitter(up, nil, &mockLogger{})
	h.s = NewSession(SessionConfig{ID: "test", NewTicker: h.ticks.New},
		mic, h.enc, submitter, h.view, &mockLogger{}, h.obs)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runErr <- h.s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-h.s.Done()
	})
	return h
}

func (h *sessionHarness) waitState(t *testing.T, want domain.SessionState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.s.State() == want }, waitFor, pollAt,
		"state never became %v (now %v)", want, h.s.State())
}

// waitResult waits for the n-th outcome to be rendered.
func (h *sessionHarness) waitResult(t *testing.T, n int) []domain.Outcome {
	t.Helper()
	h.waitState(t, domain.StateResultShown)
	require.Eventually(t, func() bool { return len(h.view.shownOutcomes()) == n }, waitFor, pollAt)
	return h.view.shownOutcomes()
}

func (h *sessionHarness) stays(t *testing.T, want domain.SessionState) {
	t.Helper()
	assert.Never(t, func() bool { return h.s.State() != want }, quiet, pollAt,
		"state left %v", want)
}

func (h *sessionHarness) tick(t *testing.T) {
	t.Helper()
	tk := h.ticks.last()
	require.NotNil(t, tk, "no ticker running")
	select {
	case tk.ch <- time.Now():
	case <-time.After(waitFor):
		t.Fatal("tick not consumed")
	}
}

func feed(t *testing.T, s *fakeStream, n int) {
	t.Helper()
	select {
	case s.feed <- make(domain.Chunk, n):
	case <-time.After(waitFor):
		t.Fatal("chunk not consumed")
	}
}

func healthyResponse() domain.UploadResponse {
	return domain.UploadResponse{
		Success:   true,
		Diagnosis: &domain.DiagnosisResult{PredictedClass: domain.HealthyLabel, Confidence: "92%"},
		Filename:  "cough_1.wav",
	}
}

func TestSession_RecordAndDiagnose(t *testing.T) {
	stream := newFakeStream()
	h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	require.Eventually(t, h.view.isRecording, waitFor, pollAt)

	feed(t, stream, 4000)
	feed(t, stream, 4000)
	for i := 0; i < 3; i++ {
		h.tick(t)
	}
	require.Eventually(t, func() bool { return h.view.lastTimer() == "00:03" }, waitFor, pollAt)

	require.NoError(t, h.s.Toggle())
	outcomes := h.waitResult(t, 1)

	assert.True(t, stream.isClosed(), "microphone not released")
	assert.True(t, h.ticks.last().stopped.Load(), "timer not stopped")
	assert.False(t, h.view.isRecording())
	assert.Equal(t, int32(1), h.up.calls.Load())
	assert.Equal(t, []int{8000}, h.enc.encoded())

	assert.Equal(t, domain.OutcomeDiagnosis, outcomes[0].Kind)
	assert.Equal(t, domain.HealthyLabel, outcomes[0].Label)
	assert.Equal(t, "92%", outcomes[0].Confidence)
	assert.True(t, outcomes[0].Healthy)
	assert.Equal(t, "cough_1.wav", outcomes[0].AudioFile)

	var path []domain.SessionState
	for _, ev := range h.obs.Events() {
		path = append(path, ev.current)
	}
	assert.Equal(t, []domain.SessionState{
		domain.StateRecording, domain.StateUploading, domain.StateResultShown,
	}, path)
}

func TestSession_ToggleIgnoredWhileUploadingAndShowingResult(t *testing.T) {
	stream := newFakeStream()
	up := &fakeUploader{resp: healthyResponse(), release: make(chan struct{})}
	h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, up)

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateUploading)

	require.NoError(t, h.s.Toggle())
	h.stays(t, domain.StateUploading)
	assert.Equal(t, int32(1), h.mic.opens.Load())

	close(up.release)
	h.waitResult(t, 1)

	require.NoError(t, h.s.Toggle())
	h.stays(t, domain.StateResultShown)
	assert.Equal(t, int32(1), up.calls.Load())
	assert.Equal(t, int32(1), h.mic.opens.Load())
}

func TestSession_ToggleIgnoredWhileMicrophonePending(t *testing.T) {
	stream := newFakeStream()
	mic := &fakeMic{streams: []*fakeStream{stream}, gate: make(chan struct{})}
	h := startSession(t, mic, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	require.Eventually(t, func() bool { return mic.opens.Load() == 1 }, waitFor, pollAt)
	require.NoError(t, h.s.Toggle())
	close(mic.gate)

	h.waitState(t, domain.StateRecording)
	h.stays(t, domain.StateRecording)
	assert.Equal(t, int32(1), mic.opens.Load())
	assert.Zero(t, h.up.calls.Load())
}

func TestSession_MicrophoneDenied(t *testing.T) {
	h := startSession(t, &fakeMic{err: domain.ErrMicrophoneDenied}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	require.Eventually(t, func() bool { return len(h.view.inlineErrors()) == 1 }, waitFor, pollAt)

	assert.Equal(t, domain.MicrophoneErrorMessage, h.view.inlineErrors()[0])
	assert.Equal(t, domain.StateIdle, h.s.State())
	assert.Empty(t, h.obs.Events())
	assert.Zero(t, h.up.calls.Load())
	assert.False(t, h.view.isRecording())

	// The user may try again.
	require.NoError(t, h.s.Toggle())
	require.Eventually(t, func() bool { return h.mic.opens.Load() == 2 }, waitFor, pollAt)
}

func TestSession_FailureOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		up      *fakeUploader
		kind    domain.OutcomeKind
		message string
	}{
		{
			name:    "success false",
			up:      &fakeUploader{resp: domain.UploadResponse{Success: false}},
			kind:    domain.OutcomeAnalysisFailed,
			message: domain.AnalysisFailedMessage,
		},
		{
			name:    "network error",
			up:      &fakeUploader{err: errors.New("connection refused")},
			kind:    domain.OutcomeConnectionError,
			message: domain.ConnectionErrorMessage,
		},
		{
			name: "server reported error",
			up: &fakeUploader{resp: domain.UploadResponse{
				Success:   true,
				Diagnosis: &domain.DiagnosisResult{Error: "model not loaded"},
			}},
			kind:    domain.OutcomeServerError,
			message: "model not loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := newFakeStream()
			h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, tt.up)

			require.NoError(t, h.s.Toggle())
			h.waitState(t, domain.StateRecording)
			feed(t, stream, 1600)
			require.NoError(t, h.s.Toggle())
			outcomes := h.waitResult(t, 1)
			assert.Equal(t, tt.kind, outcomes[0].Kind)
			assert.Equal(t, tt.message, outcomes[0].Message)
			assert.False(t, outcomes[0].Healthy)

			require.NoError(t, h.s.Reset())
			h.waitState(t, domain.StateIdle)
			require.Eventually(t, func() bool { return h.view.panelCount() == 2 }, waitFor, pollAt)
			assert.Equal(t, "00:00", h.view.lastTimer())
		})
	}
}

func TestSession_EmptyClipIsAnalysisFailure(t *testing.T) {
	stream := newFakeStream()
	h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, &fakeUploader{resp: healthyResponse()})
	h.enc.mu.Lock()
	h.enc.err = domain.ErrEmptyClip
	h.enc.mu.Unlock()

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	require.NoError(t, h.s.Toggle())
	outcomes := h.waitResult(t, 1)
	assert.Equal(t, domain.OutcomeAnalysisFailed, outcomes[0].Kind)
	assert.Zero(t, h.up.calls.Load())
}

func TestSession_NextRecordingStartsEmpty(t *testing.T) {
	first, second := newFakeStream(), newFakeStream()
	h := startSession(t, &fakeMic{streams: []*fakeStream{first, second}}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	feed(t, first, 4000)
	feed(t, first, 4000)
	h.tick(t)
	h.tick(t)
	require.NoError(t, h.s.Toggle())
	h.waitResult(t, 1)

	require.NoError(t, h.s.Reset())
	h.waitState(t, domain.StateIdle)

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	feed(t, second, 1000)
	h.tick(t)
	require.Eventually(t, func() bool { return h.view.lastTimer() == "00:01" }, waitFor, pollAt)
	require.NoError(t, h.s.Toggle())
	h.waitResult(t, 2)

	assert.Equal(t, []int{8000, 1000}, h.enc.encoded())
	assert.Equal(t, int32(2), h.up.calls.Load())
}

func TestSession_ResetIgnoredOutsideResult(t *testing.T) {
	h := startSession(t, &fakeMic{}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Reset())
	h.stays(t, domain.StateIdle)
	assert.Equal(t, 1, h.view.panelCount())
	assert.Empty(t, h.obs.Events())
}

func TestSession_DeviceFailureWhileRecording(t *testing.T) {
	stream := newFakeStream()
	h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)
	feed(t, stream, 4000)
	h.tick(t)

	stream.fail <- errors.New("device unplugged")
	h.waitState(t, domain.StateIdle)

	require.Eventually(t, func() bool { return len(h.view.inlineErrors()) == 1 }, waitFor, pollAt)
	assert.True(t, stream.isClosed())
	assert.True(t, h.ticks.last().stopped.Load())
	assert.False(t, h.view.isRecording())
	assert.Equal(t, "00:00", h.view.lastTimer())
	assert.Zero(t, h.up.calls.Load())
	assert.Empty(t, h.enc.encoded())
}

func TestSession_CancelReleasesMicrophone(t *testing.T) {
	stream := newFakeStream()
	h := startSession(t, &fakeMic{streams: []*fakeStream{stream}}, &fakeUploader{resp: healthyResponse()})

	require.NoError(t, h.s.Toggle())
	h.waitState(t, domain.StateRecording)

	h.cancel()
	select {
	case err := <-h.runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
	}

	assert.True(t, stream.isClosed())
	assert.True(t, h.ticks.last().stopped.Load())
	assert.ErrorIs(t, h.s.Toggle(), domain.ErrSessionClosed)
	assert.ErrorIs(t, h.s.Reset(), domain.ErrSessionClosed)
}

func TestSession_CancelReleasesLateGrant(t *testing.T) {
	for i := 0; i < 50; i++ {
		stream := newFakeStream()
		mic := &fakeMic{streams: []*fakeStream{stream}, gate: make(chan struct{}), ignoreCtx: true}
		h := startSession(t, mic, &fakeUploader{resp: healthyResponse()})

		require.NoError(t, h.s.Toggle())
		require.Eventually(t, func() bool { return mic.opens.Load() == 1 }, waitFor, pollAt)

		h.cancel()
		close(mic.gate)
		<-h.s.Done()

		require.Eventually(t, stream.isClosed, waitFor, pollAt, "run %d: granted stream left open", i)
	}
}

func TestSession_RunOnce(t *testing.T) {
	h := startSession(t, &fakeMic{}, &fakeUploader{})
	require.Eventually(t, func() bool { return h.view.panelCount() == 1 }, waitFor, pollAt)

	err := h.s.Run(context.Background())
	assert.Error(t, err)
}
