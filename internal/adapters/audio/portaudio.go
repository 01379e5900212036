//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

var (
	initOnce sync.Once
	initErr  error
)

// DeviceMicrophone captures from the default PortAudio input device.
type DeviceMicrophone struct {
	format domain.AudioFormat
	chunk  time.Duration
}

// NewDeviceMicrophone creates a microphone for the default input device.
func NewDeviceMicrophone(format domain.AudioFormat, chunk time.Duration) *DeviceMicrophone {
	if chunk <= 0 {
		chunk = DefaultChunkDuration
	}
	return &DeviceMicrophone{format: format, chunk: chunk}
}

// Open initializes PortAudio once per process and starts an input stream.
func (m *DeviceMicrophone) Open(ctx context.Context) (ports.CaptureStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	initOnce.Do(func() { initErr = portaudio.Initialize() })
	if initErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMicrophoneUnavailable, initErr)
	}

	frames := m.format.FramesIn(m.chunk)
	buf := make([]int16, frames*m.format.Channels)
	stream, err := portaudio.OpenDefaultStream(m.format.Channels, 0, float64(m.format.SampleRate), frames, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMicrophoneDenied, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrMicrophoneDenied, err)
	}
	return &deviceStream{format: m.format, stream: stream, buf: buf}, nil
}

type deviceStream struct {
	format domain.AudioFormat
	stream *portaudio.Stream
	buf    []int16

	mu     sync.Mutex
	closed bool
}

func (s *deviceStream) Format() domain.AudioFormat {
	return s.format
}

func (s *deviceStream) Read() (domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrStreamClosed
	}
	if err := s.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, fmt.Errorf("read input: %w", err)
	}
	chunk := make(domain.Chunk, len(s.buf))
	copy(chunk, s.buf)
	return chunk, nil
}

// Close stops the stream. Read holds the lock for at most one buffer, so
// Close returns within one chunk duration.
func (s *deviceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}
