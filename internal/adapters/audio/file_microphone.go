package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// DefaultChunkDuration is the length of audio returned by each Read.
const DefaultChunkDuration = 250 * time.Millisecond

// FileMicrophone replays a WAV file as a capture device.
// Once the file is exhausted the stream stays open and silent until closed,
// the same way a live device keeps running until the user stops it.
type FileMicrophone struct {
	path     string
	chunk    time.Duration
	realtime bool
}

// NewFileMicrophone creates a microphone backed by the WAV file at path.
// With realtime set, reads are paced to the chunk duration.
func NewFileMicrophone(path string, chunk time.Duration, realtime bool) *FileMicrophone {
	if chunk <= 0 {
		chunk = DefaultChunkDuration
	}
	return &FileMicrophone{path: path, chunk: chunk, realtime: realtime}
}

// Open loads the file and starts the replay.
func (m *FileMicrophone) Open(ctx context.Context) (ports.CaptureStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, samples, err := ReadWAVFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMicrophoneUnavailable, err)
	}
	size := format.FramesIn(m.chunk) * format.Channels
	if size <= 0 {
		size = format.Channels
	}
	return &fileStream{
		format:    format,
		samples:   samples,
		chunkSize: size,
		interval:  m.chunk,
		realtime:  m.realtime,
		done:      make(chan struct{}),
	}, nil
}

type fileStream struct {
	format    domain.AudioFormat
	samples   []int16
	chunkSize int
	interval  time.Duration
	realtime  bool

	mu   sync.Mutex
	pos  int
	once sync.Once
	done chan struct{}
}

func (s *fileStream) Format() domain.AudioFormat {
	return s.format
}

func (s *fileStream) Read() (domain.Chunk, error) {
	select {
	case <-s.done:
		return nil, domain.ErrStreamClosed
	default:
	}

	s.mu.Lock()
	remaining := len(s.samples) - s.pos
	s.mu.Unlock()

	if remaining <= 0 {
		<-s.done
		return nil, domain.ErrStreamClosed
	}

	if s.realtime {
		timer := time.NewTimer(s.interval)
		select {
		case <-s.done:
			timer.Stop()
			return nil, domain.ErrStreamClosed
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.pos + s.chunkSize
	if end > len(s.samples) {
		end = len(s.samples)
	}
	chunk := make(domain.Chunk, end-s.pos)
	copy(chunk, s.samples[s.pos:end])
	s.pos = end
	return chunk, nil
}

func (s *fileStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
