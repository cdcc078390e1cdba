// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics of database access: query latency and failures,
// connection-pool waits and load shedding.
//
// Concrete metric systems live in subpackages (prom, dogstatsd), so that the
// rest of the module depends only on the Backend interface.
package metrics

import "time"

// Metric names recorded by the sequel package.
const (
	QueryTotal         = `sequel_query_total`
	QueryDuration      = `sequel_query_duration_seconds`
	PoolWaitDuration   = `sequel_pool_wait_seconds`
	PoolOverloadTotal  = `sequel_pool_overload_total`
	PoolInUse          = `sequel_pool_in_use`
	PoolWaiting        = `sequel_pool_waiting`
	TooBusyRejectTotal = `sequel_too_busy_total`
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets the current value of a gauge.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// Nop discards everything. Used by default so metrics are optional.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) SetGauge(string, float64, Labels)         {}
func (Nop) Flush() error                             { return nil }

// OrNop returns the backend, or Nop when it's nil.
func OrNop(val Backend) Backend {
	if val == nil {
		return Nop{}
	}
	return val
}

// RecordQuery is a convenience for the common pattern: count the query by
// outcome and measure its latency.
func RecordQuery(backend Backend, db, kind string, err error, d time.Duration) {
	status := `success`
	if err != nil {
		status = `failure`
	}

	lbls := Labels{
		`db`:     db,
		`kind`:   kind,
		`status`: status,
	}

	backend.IncCounter(QueryTotal, 1, lbls)
	backend.ObserveHistogram(QueryDuration, d.Seconds(), lbls)
}
