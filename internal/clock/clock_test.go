package clock

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	fc := clockwork.NewFakeClockAt(start)
	tk := New(fc).NewTicker(100 * time.Millisecond)

	fc.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("tick fired before period elapsed")
	default:
	}

	fc.Advance(50 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.Equal(t, start.Add(100*time.Millisecond), got)
	default:
		t.Fatal("expected a tick after one period")
	}
}

func TestFakeTickerStopsFiring(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	tk := New(fc).NewTicker(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	tk.Stop()
	tk.Stop()

	fc.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	case <-tk.Done():
	}
}

func TestNowFollowsBase(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(start)
	c := New(fc)
	fc.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}

func TestRealTickerStopClosesDone(t *testing.T) {
	tk := Real().NewTicker(time.Hour)
	tk.Stop()
	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Stop")
	}
	tk.Stop()
}
