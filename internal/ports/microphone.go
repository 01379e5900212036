package ports

import (
	"context"

	"github.com/ngt-labs/coughdx/internal/domain"
)

// Microphone grants access to an audio input device.
type Microphone interface {
	// Open requests the device and starts capturing. It blocks until access
	// is granted or refused. Refusal should wrap domain.ErrMicrophoneDenied
	// or domain.ErrMicrophoneUnavailable.
	Open(ctx context.Context) (CaptureStream, error)
}

// CaptureStream is an open input device.
type CaptureStream interface {
	// Format describes the samples returned by Read.
	Format() domain.AudioFormat

	// Read blocks until the next chunk is available.
	// Returns domain.ErrStreamClosed once Close has been called; any other
	// error is a device failure.
	Read() (domain.Chunk, error)

	// Close stops capture and releases the device. Safe to call twice.
	Close() error
}
