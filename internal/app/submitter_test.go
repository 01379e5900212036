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

func testBlob() domain.Blob {
	return domain.Blob{Data: []byte("RIFFdata"), ContentType: domain.WAVContentType, Duration: time.Second}
}

func TestSubmitter_Diagnosis(t *testing.T) {
	up := &fakeUploader{resp: healthyResponse()}
	s := NewSubmitter(up, nil, &mockLogger{})

	out := s.Submit(context.Background(), testBlob())
	s.Wait()

	assert.True(t, out.OK())
	assert.True(t, out.Healthy)
	assert.Equal(t, "92%", out.Confidence)
	assert.Equal(t, domain.DisclaimerMessage, out.Message)
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestSubmitter_TransportError(t *testing.T) {
	up := &fakeUploader{err: errors.New("dial tcp: connection refused")}
	s := NewSubmitter(up, nil, &mockLogger{})

	out := s.Submit(context.Background(), testBlob())

	assert.Equal(t, domain.OutcomeConnectionError, out.Kind)
	assert.Equal(t, domain.ConnectionErrorMessage, out.Message)
	assert.Equal(t, int32(1), up.calls.Load(), "uploads are never retried")
}

func TestSubmitter_ArchivesDiagnosis(t *testing.T) {
	history := newMemHistory()
	objects := &memObjects{}
	archiver := NewArchiver("user-1", "cough_audio", objects, history, &mockLogger{})
	archiver.newID = func() string { return "rec-1" }

	s := NewSubmitter(&fakeUploader{resp: healthyResponse()}, archiver, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	out := s.Submit(ctx, testBlob())
	cancel()
	s.Wait()

	require.True(t, out.OK())
	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "mem://cough_audio/user-1/rec-1.wav", rec.AudioURL)
	assert.Equal(t, domain.HealthyLabel, rec.Result.PredictedClass)
}

func TestSubmitter_NoArchiveOnFailure(t *testing.T) {
	history := newMemHistory()
	archiver := NewArchiver("user-1", "cough_audio", nil, history, &mockLogger{})
	s := NewSubmitter(&fakeUploader{resp: domain.UploadResponse{Success: false}}, archiver, &mockLogger{})

	out := s.Submit(context.Background(), testBlob())
	s.Wait()

	assert.Equal(t, domain.OutcomeAnalysisFailed, out.Kind)
	assert.Empty(t, history.records)
}

func TestSubmitter_ArchiveFailureKeepsOutcome(t *testing.T) {
	objects := &memObjects{err: errors.New("access denied")}
	history := newMemHistory()
	archiver := NewArchiver("user-1", "cough_audio", objects, history, &mockLogger{})
	s := NewSubmitter(&fakeUploader{resp: healthyResponse()}, archiver, &mockLogger{})

	out := s.Submit(context.Background(), testBlob())
	s.Wait()

	assert.True(t, out.OK())
	assert.Empty(t, history.records)
}
