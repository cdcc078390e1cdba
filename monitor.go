package sequel

import (
	"log/slog"
	"sync/atomic"
	"time"
)

/*
Tracks connection-pool saturation. The monitor is either idle or queueing.
The first `Enqueued` after idle starts a queueing window; further `Enqueued`
calls keep the original start. `Granted` closes the window and reports its
duration to the overload callback, if any. `TooBusy` is a non-blocking read.

The whole state is one atomic word: the start of the window in Unix
nanoseconds, with the lowest bit marking that the window has already logged
its warning. Notifications may arrive from any number of goroutines.
*/
type Monitor struct {
	state     atomic.Int64
	clock     func() time.Time
	overload  func(time.Duration)
	warnAfter time.Duration
	logger    *slog.Logger
}

const warnedBit = 1

type MonitorOption func(*Monitor)

// Overrides the time source. The clock must never report the Unix epoch.
func WithClock(fun func() time.Time) MonitorOption {
	return func(self *Monitor) {
		if fun != nil {
			self.clock = fun
		}
	}
}

// Invoked with the duration of each queueing window when it closes.
func WithOverload(fun func(time.Duration)) MonitorOption {
	return func(self *Monitor) { self.overload = fun }
}

/*
Logs one warning per queueing window when a connection request is queued while
the window has already lasted longer than this. Zero or negative disables the
warning.
*/
func WithWarnAfter(val time.Duration) MonitorOption {
	return func(self *Monitor) { self.warnAfter = val }
}

func WithMonitorLogger(val *slog.Logger) MonitorOption {
	return func(self *Monitor) {
		if val != nil {
			self.logger = val
		}
	}
}

func NewMonitor(opts ...MonitorOption) *Monitor {
	out := &Monitor{
		clock:  time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Notification: a connection request had to wait.
func (self *Monitor) Enqueued() {
	now := self.clock().UnixNano()
	if self.state.CompareAndSwap(0, now&^warnedBit) || self.warnAfter <= 0 {
		return
	}

	for {
		state := self.state.Load()
		if state == 0 || state&warnedBit != 0 {
			return
		}

		wait := time.Duration(now - state)
		if wait <= self.warnAfter {
			return
		}

		if self.state.CompareAndSwap(state, state|warnedBit) {
			self.logger.Warn(`connection requests are queueing`,
				slog.Duration(`wait`, wait),
				slog.Duration(`threshold`, self.warnAfter),
			)
			return
		}
	}
}

// Notification: a connection was granted. Closes the queueing window, if any.
func (self *Monitor) Granted() {
	since := self.state.Swap(0) &^ warnedBit
	if since != 0 && self.overload != nil {
		self.overload(time.Duration(self.clock().UnixNano() - since))
	}
}

/*
Notification: every queued request gave up, for example because its context
was canceled or the pool was closed. Returns to idle without reporting a
window, since nothing was granted.
*/
func (self *Monitor) Drained() { self.state.Store(0) }

/*
True while connection requests are queueing and the current window has lasted
longer than the threshold. Never blocks, never modifies state.
*/
func (self *Monitor) TooBusy(threshold time.Duration) bool {
	since := self.since()
	return since != 0 && time.Duration(self.clock().UnixNano()-since) > threshold
}

// Duration of the current queueing window, or zero when idle.
func (self *Monitor) Wait() time.Duration {
	since := self.since()
	if since == 0 {
		return 0
	}
	return time.Duration(self.clock().UnixNano() - since)
}

// Start of the current queueing window, if any.
func (self *Monitor) Since() (time.Time, bool) {
	since := self.since()
	if since == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, since), true
}

func (self *Monitor) since() int64 { return self.state.Load() &^ warnedBit }
