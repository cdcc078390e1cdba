package sequel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitranim/sequel/metrics"
	"golang.org/x/sync/semaphore"
)

/*
Anything that runs a query and returns all rows: `*Pool`, `*Conn`, `*DB`, or a
`Backend`. Query text must already be in the placeholder style of the target
database.
*/
type Querier interface {
	QueryRows(ctx context.Context, text string, args []any) ([]Row, error)
}

// A connection held exclusively until released.
type BackendConn interface {
	Querier
	Release()
}

/*
Database access underneath a `Pool`. Implementations are provided by the
driver subpackages; `NewSQLBackend` adapts any "database/sql" database.
*/
type Backend interface {
	Querier
	Acquire(ctx context.Context) (BackendConn, error)
	Ping(ctx context.Context) error
	Close() error
}

/*
Receives pool lifecycle events. `Enqueued` fires when a connection request
can't be served immediately, `Granted` on every successful acquisition, and
`Drained` when the last queued request gives up without a connection.
Implemented by `*Monitor`.
*/
type PoolObserver interface {
	Enqueued()
	Granted()
	Drained()
}

// Snapshot of pool usage.
type PoolStats struct {
	Max     int64 `json:"max"`
	InUse   int64 `json:"inUse"`
	Waiting int64 `json:"waiting"`
}

/*
Bounds the number of concurrently held connections to `max`. Requests beyond
that wait in FIFO order until a slot frees up, their context is done, or the
pool is closed. Every query and every `Conn` holds one slot.
*/
type Pool struct {
	backend  Backend
	sem      *semaphore.Weighted
	max      int64
	observer PoolObserver
	metrics  metrics.Backend
	labels   metrics.Labels
	inUse    atomic.Int64
	waiting  atomic.Int64
	closed   atomic.Bool
	done     context.Context
	stop     context.CancelFunc

	// Orders changes of `waiting` with the observer calls they cause.
	queue sync.Mutex
}

/*
Creates a pool over the backend. A nil observer or metrics backend is allowed.
Values of `max` below 1 become 1.
*/
func NewPool(backend Backend, max int, observer PoolObserver, mets metrics.Backend) *Pool {
	if max < 1 {
		max = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}
	done, stop := context.WithCancel(context.Background())
	return &Pool{
		backend:  backend,
		sem:      semaphore.NewWeighted(int64(max)),
		max:      int64(max),
		observer: observer,
		metrics:  metrics.OrNop(mets),
		done:     done,
		stop:     stop,
	}
}

// Runs one query while holding a slot.
func (self *Pool) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	err := self.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer self.release()
	return self.backend.QueryRows(ctx, text, args)
}

/*
Acquires a dedicated connection. The caller must call `Conn.Release`, after
which the slot becomes available to other requests.
*/
func (self *Pool) Conn(ctx context.Context) (*Conn, error) {
	err := self.acquire(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := self.backend.Acquire(ctx)
	if err != nil {
		self.release()
		return nil, err
	}
	return &Conn{pool: self, conn: conn}, nil
}

func (self *Pool) Stats() PoolStats {
	return PoolStats{
		Max:     self.max,
		InUse:   self.inUse.Load(),
		Waiting: self.waiting.Load(),
	}
}

func (self *Pool) Ping(ctx context.Context) error {
	return self.backend.Ping(ctx)
}

/*
Rejects further requests, fails queued ones with `ErrClosed` and closes the
backend. Held connections stay usable until released. Idempotent.
*/
func (self *Pool) Close() error {
	if !self.closed.CompareAndSwap(false, true) {
		return nil
	}
	self.stop()
	return self.backend.Close()
}

func (self *Pool) acquire(ctx context.Context) error {
	if self.closed.Load() {
		return ErrClosed
	}

	if !self.sem.TryAcquire(1) {
		start := time.Now()
		self.enqueue()
		err := self.wait(ctx)
		self.dequeue(err == nil)
		if err != nil {
			return err
		}
		self.metrics.ObserveHistogram(metrics.PoolWaitDuration, time.Since(start).Seconds(), self.labels)
	} else if self.closed.Load() {
		self.sem.Release(1)
		return ErrClosed
	}

	self.metrics.SetGauge(metrics.PoolInUse, float64(self.inUse.Add(1)), self.labels)
	self.observer.Granted()
	return nil
}

// Waits for a slot until the context is done or the pool is closed.
func (self *Pool) wait(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(self.done, cancel)()

	err := self.sem.Acquire(ctx, 1)
	if self.closed.Load() {
		if err == nil {
			self.sem.Release(1)
		}
		return ErrClosed
	}
	return err
}

func (self *Pool) enqueue() {
	self.queue.Lock()
	defer self.queue.Unlock()

	self.metrics.SetGauge(metrics.PoolWaiting, float64(self.waiting.Add(1)), self.labels)
	self.observer.Enqueued()
}

/*
Leaves the queue. The last request to leave without a slot drains the
observer; a request joining concurrently either enqueues before that, keeping
the count above zero, or after it, starting a new window.
*/
func (self *Pool) dequeue(granted bool) {
	self.queue.Lock()
	defer self.queue.Unlock()

	remaining := self.waiting.Add(-1)
	self.metrics.SetGauge(metrics.PoolWaiting, float64(remaining), self.labels)
	if !granted && remaining == 0 {
		self.observer.Drained()
	}
}

func (self *Pool) release() {
	self.metrics.SetGauge(metrics.PoolInUse, float64(self.inUse.Add(-1)), self.labels)
	self.sem.Release(1)
}

/*
Connection acquired via `Pool.Conn` or `DB.Conn`. Holds a pool slot until
`Release`. Not safe for concurrent queries, but `Release` may be called from
any goroutine, any number of times.
*/
type Conn struct {
	pool     *Pool
	conn     BackendConn
	once     sync.Once
	released atomic.Bool
}

func (self *Conn) QueryRows(ctx context.Context, text string, args []any) ([]Row, error) {
	if self.released.Load() {
		return nil, ErrReleased
	}
	return self.conn.QueryRows(ctx, text, args)
}

// Returns the connection to the pool. Idempotent.
func (self *Conn) Release() {
	self.once.Do(func() {
		self.released.Store(true)
		self.conn.Release()
		self.pool.release()
	})
}

type nopObserver struct{}

func (nopObserver) Enqueued() {}
func (nopObserver) Granted()  {}
func (nopObserver) Drained()  {}
