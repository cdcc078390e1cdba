/*
Package prom implements a Prometheus backend for the metrics package.

Every metric recorded by the sequel package is registered up front in a
private registry, which can be scraped via `Backend.Handler` or pushed to a
Pushgateway on `Backend.Flush`. Metric names unknown to this package are
ignored.
*/
package prom

import (
	"fmt"
	"net/http"

	"github.com/mitranim/sequel/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	queryLabels = []string{`db`, `kind`, `status`}
	poolLabels  = []string{`db`}
)

// Config holds Prometheus backend configuration.
type Config struct {
	// Optional Pushgateway URL, e.g. "http://pushgateway:9091". When empty,
	// `Flush` does nothing.
	GatewayURL string

	// Pushgateway "job" grouping key. Defaults to "sequel".
	Job string

	// Histogram buckets in seconds. Defaults to `prometheus.DefBuckets`.
	Buckets []float64
}

// Backend is a Prometheus implementation of metrics.Backend.
type Backend struct {
	conf       Config
	reg        *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewBackend registers every known metric in a fresh registry.
func NewBackend(conf Config) (*Backend, error) {
	if conf.Job == `` {
		conf.Job = `sequel`
	}
	if len(conf.Buckets) == 0 {
		conf.Buckets = prometheus.DefBuckets
	}

	out := &Backend{
		conf:       conf,
		reg:        prometheus.NewRegistry(),
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
		gauges:     map[string]*prometheus.GaugeVec{},
	}

	out.counters[metrics.QueryTotal] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.QueryTotal,
		Help: `Executed statements, partitioned by database, kind and status.`,
	}, queryLabels)

	out.counters[metrics.PoolOverloadTotal] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.PoolOverloadTotal,
		Help: `Closed windows during which connection requests were queueing.`,
	}, poolLabels)

	out.counters[metrics.TooBusyRejectTotal] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.TooBusyRejectTotal,
		Help: `Too-busy checks that reported the pool as saturated.`,
	}, poolLabels)

	out.histograms[metrics.QueryDuration] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metrics.QueryDuration,
		Help:    `Statement latency in seconds, including the wait for a connection.`,
		Buckets: conf.Buckets,
	}, queryLabels)

	out.histograms[metrics.PoolWaitDuration] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metrics.PoolWaitDuration,
		Help:    `Time spent waiting for a pool slot in seconds.`,
		Buckets: conf.Buckets,
	}, poolLabels)

	out.gauges[metrics.PoolInUse] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metrics.PoolInUse,
		Help: `Pool slots currently held.`,
	}, poolLabels)

	out.gauges[metrics.PoolWaiting] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metrics.PoolWaiting,
		Help: `Connection requests currently queueing.`,
	}, poolLabels)

	for name, val := range out.collectors() {
		if err := out.reg.Register(val); err != nil {
			return nil, fmt.Errorf(`prom: register %v: %w`, name, err)
		}
	}
	return out, nil
}

func (self *Backend) collectors() map[string]prometheus.Collector {
	out := map[string]prometheus.Collector{}
	for key, val := range self.counters {
		out[key] = val
	}
	for key, val := range self.histograms {
		out[key] = val
	}
	for key, val := range self.gauges {
		out[key] = val
	}
	return out
}

// Registry holding every metric of this backend.
func (self *Backend) Registry() *prometheus.Registry { return self.reg }

// HTTP handler exposing the registry for scraping.
func (self *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(self.reg, promhttp.HandlerOpts{Registry: self.reg})
}

func (self *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if vec := self.counters[name]; vec != nil {
		vec.With(only(labels, name == metrics.QueryTotal)).Add(delta)
	}
}

func (self *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if vec := self.histograms[name]; vec != nil {
		vec.With(only(labels, name == metrics.QueryDuration)).Observe(value)
	}
}

func (self *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	if vec := self.gauges[name]; vec != nil {
		vec.With(only(labels, false)).Set(value)
	}
}

// Pushes the registry to the Pushgateway, if configured.
func (self *Backend) Flush() error {
	if self.conf.GatewayURL == `` {
		return nil
	}
	return push.New(self.conf.GatewayURL, self.conf.Job).Gatherer(self.reg).Push()
}

// `prometheus.Labels` with exactly the label names of the metric; missing
// labels are empty.
func only(src metrics.Labels, query bool) prometheus.Labels {
	names := poolLabels
	if query {
		names = queryLabels
	}

	out := make(prometheus.Labels, len(names))
	for _, name := range names {
		out[name] = src[name]
	}
	return out
}
