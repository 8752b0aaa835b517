package countdown

import (
	"fmt"
	"sync"
	"time"
)

const DefaultInterval = time.Second

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Config struct {
	// Seconds is the starting remaining time.
	Seconds int
	// Interval between two decrements, DefaultInterval when zero.
	Interval      time.Duration
	NewTickerFunc func(d time.Duration) Ticker
}

// Timer counts the remaining seconds of an attempt down to zero, one per tick.
type Timer struct {
	mu        sync.RWMutex
	remaining int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start starts a timer. Caller should call Stop once the timer is no longer needed.
func Start(c Config) *Timer {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.NewTickerFunc == nil {
		c.NewTickerFunc = newTicker
	}

	t := &Timer{
		remaining: max(c.Seconds, 0),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if t.remaining == 0 {
		close(t.done)
		return t
	}

	go t.run(c.NewTickerFunc(c.Interval))

	return t
}

func (t *Timer) run(tk Ticker) {
	defer close(t.done)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-tk.C():
			if t.tick() == 0 {
				return
			}
		}
	}
}

func (t *Timer) tick() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remaining > 0 {
		t.remaining--
	}
	return t.remaining
}

// Remaining returns the remaining seconds.
func (t *Timer) Remaining() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.remaining
}

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool {
	return t.Remaining() == 0
}

// Done is closed when the countdown reached zero or the timer was stopped.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Stop releases the ticker and freezes the remaining time. It is safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

type ticker struct {
	t *time.Ticker
}

func newTicker(d time.Duration) Ticker {
	return ticker{t: time.NewTicker(d)}
}

func (t ticker) C() <-chan time.Time { return t.t.C }
func (t ticker) Stop()               { t.t.Stop() }
