package ports

import "time"

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates tickers. Tests inject manual tickers.
type TickerFactory func(d time.Duration) Ticker
