/*
Package dogstatsd implements a DogStatsD backend for the metrics package,
using the official Datadog client. Labels become "key:value" tags.
*/
package dogstatsd

import (
	"fmt"
	"slices"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/mitranim/sequel/metrics"
)

// Config holds DogStatsD backend configuration.
type Config struct {
	// DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Optional prefix of every metric name, e.g. "app.".
	Namespace string

	// Tags applied to every metric, e.g. "env:prod".
	Tags []string
}

// Subset of `*statsd.Client` used by the backend.
type Client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

// Backend is a DogStatsD implementation of metrics.Backend.
type Backend struct{ client Client }

// Connects to the agent described by the config.
func NewBackend(conf Config) (*Backend, error) {
	if conf.Addr == `` {
		return nil, fmt.Errorf(`dogstatsd: Addr is required`)
	}

	var opts []statsd.Option
	if conf.Namespace != `` {
		opts = append(opts, statsd.WithNamespace(conf.Namespace))
	}
	if len(conf.Tags) > 0 {
		opts = append(opts, statsd.WithTags(conf.Tags))
	}

	client, err := statsd.New(conf.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf(`dogstatsd: create client: %w`, err)
	}
	return New(client), nil
}

// Wraps an existing client, such as `*statsd.Client`.
func New(client Client) *Backend { return &Backend{client: client} }

// Counts are integers; fractional deltas are truncated.
func (self *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	_ = self.client.Count(name, int64(delta), tags(labels), 1)
}

func (self *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	_ = self.client.Histogram(name, value, tags(labels), 1)
}

func (self *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	_ = self.client.Gauge(name, value, tags(labels), 1)
}

// Sends buffered metrics to the agent.
func (self *Backend) Flush() error { return self.client.Flush() }

// Flushes and closes the client.
func (self *Backend) Close() error { return self.client.Close() }

func tags(src metrics.Labels) []string {
	if len(src) == 0 {
		return nil
	}
	out := make([]string, 0, len(src))
	for key, val := range src {
		out = append(out, key+`:`+val)
	}
	slices.Sort(out)
	return out
}
