// Package clock adapts clockwork clocks to the tick sources sessions use, so
// tests can drive sessions with a fake clock.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock reports the current time and creates tickers.
type Clock interface {
	Now() time.Time
	NewTicker(period time.Duration) Ticker
}

// Ticker delivers ticks on C until Stop is called. Done is closed by Stop so
// goroutines waiting on C can exit.
type Ticker interface {
	C() <-chan time.Time
	Done() <-chan struct{}
	Stop()
}

type clock struct {
	base clockwork.Clock
}

// New wraps a clockwork clock. Pass a *clockwork.FakeClock in tests.
func New(base clockwork.Clock) Clock {
	return clock{base: base}
}

// Real returns the wall clock.
func Real() Clock {
	return New(clockwork.NewRealClock())
}

// Now implements Clock.
func (c clock) Now() time.Time {
	return c.base.Now()
}

// NewTicker implements Clock.
func (c clock) NewTicker(period time.Duration) Ticker {
	return &ticker{
		t:    c.base.NewTicker(period),
		done: make(chan struct{}),
	}
}

type ticker struct {
	t    clockwork.Ticker
	done chan struct{}
	once sync.Once
}

func (t *ticker) C() <-chan time.Time {
	return t.t.Chan()
}

func (t *ticker) Done() <-chan struct{} {
	return t.done
}

func (t *ticker) Stop() {
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
	})
}
