//go:build !portaudio

package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// DeviceMicrophone is unavailable in builds without the portaudio tag.
type DeviceMicrophone struct{}

// NewDeviceMicrophone returns a microphone that always refuses to open.
func NewDeviceMicrophone(format domain.AudioFormat, chunk time.Duration) *DeviceMicrophone {
	return &DeviceMicrophone{}
}

func (DeviceMicrophone) Open(ctx context.Context) (ports.CaptureStream, error) {
	return nil, fmt.Errorf("%w: built without portaudio support (rebuild with -tags portaudio or pass --input)", domain.ErrMicrophoneUnavailable)
}
