package countdown_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/codechallenge/internal/countdown"
)

func TestTimer_CountsDownToZero(t *testing.T) {
	tk := newFakeTicker()
	timer := countdown.Start(countdown.Config{
		Seconds:       3,
		NewTickerFunc: tk.new,
	})

	assert.Equal(t, 3, timer.Remaining())

	tk.tick()
	require.Eventually(t, func() bool { return timer.Remaining() == 2 }, time.Second, time.Millisecond)

	tk.tick()
	tk.tick()

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer should finish at zero")
	}

	assert.Equal(t, 0, timer.Remaining())
	assert.True(t, timer.Expired())
	assert.True(t, tk.stopped(), "ticker should be released")

	timer.Stop()
}

func TestTimer_Stop(t *testing.T) {
	tk := newFakeTicker()
	timer := countdown.Start(countdown.Config{
		Seconds:       60,
		NewTickerFunc: tk.new,
	})

	tk.tick()
	require.Eventually(t, func() bool { return timer.Remaining() == 59 }, time.Second, time.Millisecond)

	timer.Stop()
	timer.Stop()

	assert.Equal(t, 59, timer.Remaining(), "stopped timer keeps its remaining time")
	assert.False(t, timer.Expired())
	assert.True(t, tk.stopped())
}

func TestTimer_ZeroSeconds(t *testing.T) {
	timer := countdown.Start(countdown.Config{Seconds: 0})

	select {
	case <-timer.Done():
	default:
		t.Fatal("zero timer should be done immediately")
	}
	assert.True(t, timer.Expired())
	timer.Stop()
}

func TestTimer_RealTicker(t *testing.T) {
	timer := countdown.Start(countdown.Config{Seconds: 2, Interval: time.Millisecond})

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer should finish")
	}
	assert.True(t, timer.Expired())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "30:00", countdown.Format(1800))
	assert.Equal(t, "1:05", countdown.Format(65))
	assert.Equal(t, "0:09", countdown.Format(9))
	assert.Equal(t, "0:00", countdown.Format(-3))
}

type fakeTicker struct {
	c    chan time.Time
	stop chan struct{}
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{
		c:    make(chan time.Time),
		stop: make(chan struct{}),
	}
}

func (f *fakeTicker) new(time.Duration) countdown.Ticker { return f }

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() { close(f.stop) }

func (f *fakeTicker) tick() { f.c <- time.Now() }

func (f *fakeTicker) stopped() bool {
	select {
	case <-f.stop:
		return true
	default:
		return false
	}
}
