package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(zap.NewNop())
	t.Cleanup(s.Stop)
	return s
}

func TestAddDelay_Fires(t *testing.T) {
	s := newScheduler(t)
	var fired atomic.Int32

	s.AddDelay("t", 10*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestAddDelay_SameNameSupersedes(t *testing.T) {
	s := newScheduler(t)
	var first, second atomic.Int32

	s.AddDelay("save", 30*time.Millisecond, func() { first.Add(1) })
	s.AddDelay("save", 30*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "superseded task must not fire")
}

func TestRemove_CancelsPendingDelay(t *testing.T) {
	s := newScheduler(t)
	var fired atomic.Int32

	s.AddDelay("t", 30*time.Millisecond, func() { fired.Add(1) })
	s.Remove("t")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestAddTicker_FiresRepeatedly(t *testing.T) {
	s := newScheduler(t)
	var fired atomic.Int32

	s.AddTicker("tick", 10*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() >= 2 },
		time.Second, 5*time.Millisecond)
	assert.Contains(t, s.ListTickers(), "tick")
}

func TestTask_PanicRecovered(t *testing.T) {
	s := newScheduler(t)
	var after atomic.Int32

	s.AddDelay("boom", time.Millisecond, func() { panic("boom") })
	s.AddDelay("ok", 10*time.Millisecond, func() { after.Add(1) })

	assert.Eventually(t, func() bool { return after.Load() == 1 },
		time.Second, 5*time.Millisecond)
}
