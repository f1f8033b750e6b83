package sim

import "time"

// Clock abstracts wall-clock time and periodic ticking so the loop can be
// driven by a fake clock in tests.
type Clock interface {
	Now() time.Time
	NewTicker(period time.Duration) Ticker
}

// Ticker delivers periodic tick times.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker returns a ticker firing every period.
func (SystemClock) NewTicker(period time.Duration) Ticker {
	return systemTicker{time.NewTicker(period)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time {
	return s.t.C
}

func (s systemTicker) Stop() {
	s.t.Stop()
}
