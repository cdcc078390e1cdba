package sequel

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitor_window(t *testing.T) {
	clock := newFakeClock()
	var windows []time.Duration
	mon := NewMonitor(
		WithClock(clock.Now),
		WithOverload(func(val time.Duration) { windows = append(windows, val) }),
	)

	require.False(t, mon.TooBusy(0))
	require.Zero(t, mon.Wait())
	_, ok := mon.Since()
	require.False(t, ok)

	start := clock.Now()
	mon.Enqueued()
	clock.Add(50 * time.Millisecond)
	mon.Enqueued()
	clock.Add(50 * time.Millisecond)

	since, ok := mon.Since()
	require.True(t, ok)
	require.True(t, start.Equal(since))
	require.Equal(t, 100*time.Millisecond, mon.Wait())

	require.True(t, mon.TooBusy(99*time.Millisecond))
	require.False(t, mon.TooBusy(100*time.Millisecond))
	require.False(t, mon.TooBusy(time.Second))

	mon.Granted()
	require.Equal(t, []time.Duration{100 * time.Millisecond}, windows)
	require.False(t, mon.TooBusy(0))
	require.Zero(t, mon.Wait())

	mon.Granted()
	require.Len(t, windows, 1, `granting while idle must not report a window`)
}

func TestMonitor_TooBusy_readOnly(t *testing.T) {
	clock := newFakeClock()
	mon := NewMonitor(WithClock(clock.Now))

	mon.Enqueued()
	clock.Add(time.Second)

	for range 3 {
		require.True(t, mon.TooBusy(time.Millisecond))
	}
	require.Equal(t, time.Second, mon.Wait())
}

func TestMonitor_Drained(t *testing.T) {
	clock := newFakeClock()
	var calls int
	mon := NewMonitor(WithClock(clock.Now), WithOverload(func(time.Duration) { calls++ }))

	mon.Enqueued()
	clock.Add(time.Second)
	mon.Drained()

	require.False(t, mon.TooBusy(0))
	require.Zero(t, calls)

	mon.Drained()
	require.Zero(t, calls)
}

func TestMonitor_warning(t *testing.T) {
	var buf logBuffer
	clock := newFakeClock()
	mon := NewMonitor(
		WithClock(clock.Now),
		WithWarnAfter(100*time.Millisecond),
		WithMonitorLogger(buf.Logger()),
	)

	mon.Enqueued()
	clock.Add(100 * time.Millisecond)
	mon.Enqueued()
	require.Empty(t, buf.String(), `waiting exactly the threshold doesn't warn`)

	clock.Add(time.Millisecond)
	mon.Enqueued()
	mon.Enqueued()
	clock.Add(time.Second)
	mon.Enqueued()
	require.Equal(t, 1, strings.Count(buf.String(), `connection requests are queueing`))

	mon.Granted()
	mon.Enqueued()
	clock.Add(time.Second)
	mon.Enqueued()
	require.Equal(t, 2, strings.Count(buf.String(), `connection requests are queueing`))
}

func TestMonitor_warning_disabled(t *testing.T) {
	var buf logBuffer
	clock := newFakeClock()
	mon := NewMonitor(WithClock(clock.Now), WithMonitorLogger(buf.Logger()))

	mon.Enqueued()
	clock.Add(time.Hour)
	mon.Enqueued()
	require.Empty(t, buf.String())
}

func TestMonitor_concurrent(t *testing.T) {
	var (
		lock  sync.Mutex
		total int
	)
	mon := NewMonitor(WithOverload(func(time.Duration) {
		lock.Lock()
		total++
		lock.Unlock()
	}))

	var group sync.WaitGroup
	for range 16 {
		group.Add(1)
		go func() {
			defer group.Done()
			for range 100 {
				mon.Enqueued()
				_ = mon.TooBusy(time.Millisecond)
				mon.Granted()
			}
		}()
	}
	group.Wait()

	mon.Granted()
	require.False(t, mon.TooBusy(0))
	require.LessOrEqual(t, total, 16*100)
}

func TestMonitor_warning_concurrent(t *testing.T) {
	var buf logBuffer
	clock := newFakeClock()
	start := clock.Now()
	mon := NewMonitor(
		WithClock(clock.Now),
		WithWarnAfter(100*time.Millisecond),
		WithMonitorLogger(buf.Logger()),
	)

	mon.Enqueued()
	clock.Add(time.Second)

	var group sync.WaitGroup
	for range 32 {
		group.Add(1)
		go func() {
			defer group.Done()
			for range 50 {
				mon.Enqueued()
			}
		}()
	}
	group.Wait()
	require.Equal(t, 1, strings.Count(buf.String(), `connection requests are queueing`))

	since, ok := mon.Since()
	require.True(t, ok)
	require.Equal(t, start, since)
	require.Equal(t, time.Second, mon.Wait())

	mon.Granted()
	require.False(t, mon.TooBusy(0))
}
