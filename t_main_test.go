package sequel

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/mitranim/sequel/metrics"
	"github.com/mitranim/sequel/stmt"
)

type fakeQuery struct {
	Text string
	Args []any
}

/*
In-memory `Backend`. Returns copies of `rows` or `err` for every query and
records what was executed.
*/
type fakeBackend struct {
	sync.Mutex
	rows      []Row
	err       error
	pingErr   error
	queries   []fakeQuery
	deadlines []bool
	acquired  int
	released  int
	closed    bool
}

func (self *fakeBackend) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	self.Lock()
	defer self.Unlock()

	_, ok := ctx.Deadline()
	self.queries = append(self.queries, fakeQuery{text, args})
	self.deadlines = append(self.deadlines, ok)

	if self.err != nil {
		return nil, self.err
	}

	var out []Row
	for _, row := range self.rows {
		out = append(out, maps.Clone(row))
	}
	return out, nil
}

func (self *fakeBackend) Acquire(context.Context) (BackendConn, error) {
	self.Lock()
	defer self.Unlock()
	if self.closed {
		return nil, ErrClosed
	}
	self.acquired++
	return fakeConn{self}, nil
}

func (self *fakeBackend) Ping(context.Context) error { return self.pingErr }

func (self *fakeBackend) Close() error {
	self.Lock()
	defer self.Unlock()
	self.closed = true
	return nil
}

func (self *fakeBackend) lastQuery() fakeQuery {
	self.Lock()
	defer self.Unlock()
	if len(self.queries) == 0 {
		return fakeQuery{}
	}
	return self.queries[len(self.queries)-1]
}

func (self *fakeBackend) queryCount() int {
	self.Lock()
	defer self.Unlock()
	return len(self.queries)
}

type fakeConn struct{ backend *fakeBackend }

func (self fakeConn) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	return self.backend.QueryRows(ctx, text, args)
}

func (self fakeConn) Release() {
	self.backend.Lock()
	defer self.backend.Unlock()
	self.backend.released++
}

// Manually advanced time source. Starts far from the Unix epoch.
type fakeClock struct {
	sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (self *fakeClock) Now() time.Time {
	self.Lock()
	defer self.Unlock()
	return self.now
}

func (self *fakeClock) Add(val time.Duration) {
	self.Lock()
	defer self.Unlock()
	self.now = self.now.Add(val)
}

type metricCall struct {
	Name   string
	Value  float64
	Labels metrics.Labels
}

type metricRecorder struct {
	sync.Mutex
	counters   []metricCall
	histograms []metricCall
	gauges     []metricCall
	flushed    int
}

func (self *metricRecorder) IncCounter(name string, delta float64, labels metrics.Labels) {
	self.Lock()
	defer self.Unlock()
	self.counters = append(self.counters, metricCall{name, delta, labels})
}

func (self *metricRecorder) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	self.Lock()
	defer self.Unlock()
	self.histograms = append(self.histograms, metricCall{name, value, labels})
}

func (self *metricRecorder) SetGauge(name string, value float64, labels metrics.Labels) {
	self.Lock()
	defer self.Unlock()
	self.gauges = append(self.gauges, metricCall{name, value, labels})
}

func (self *metricRecorder) Flush() error {
	self.Lock()
	defer self.Unlock()
	self.flushed++
	return nil
}

func (self *metricRecorder) counted(name string) (out float64) {
	self.Lock()
	defer self.Unlock()
	for _, val := range self.counters {
		if val.Name == name {
			out += val.Value
		}
	}
	return
}

// Thread-safe log buffer.
type logBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (self *logBuffer) Write(src []byte) (int, error) {
	self.Lock()
	defer self.Unlock()
	return self.buf.Write(src)
}

func (self *logBuffer) String() string {
	self.Lock()
	defer self.Unlock()
	return self.buf.String()
}

func (self *logBuffer) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(self, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var schemaUsers = stmt.Schema{
	Name:    `users`,
	Columns: stmt.Cols(`id`, `name`),
}

func newTestDB(t testing.TB, backend *fakeBackend, conf Config, opts ...Option) *DB {
	t.Helper()
	db := New(backend, stmt.Postgres, conf, opts...)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
