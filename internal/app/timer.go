package app

import (
	"fmt"
	"time"

	"github.com/ngt-labs/coughdx/internal/ports"
)

// TimerInterval is the resolution of the elapsed-time display.
const TimerInterval = time.Second

// FormatElapsed renders whole seconds as zero-padded mm:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker is the wall-clock ports.TickerFactory.
func NewTimeTicker(d time.Duration) ports.Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }
