package sequel

import (
	"context"
	"log/slog"
	"time"

	"github.com/mitranim/sequel/metrics"
	"github.com/mitranim/sequel/stmt"
	"github.com/zeebo/xxh3"
)

type Option func(*DB)

// Logger for configuration errors, slow pools and executed statements (at
// debug level). Defaults to discarding everything.
func WithLogger(val *slog.Logger) Option {
	return func(self *DB) {
		if val != nil {
			self.logger = val
		}
	}
}

func WithMetrics(val metrics.Backend) Option {
	return func(self *DB) { self.metrics = metrics.OrNop(val) }
}

// Invoked with the duration of every closed queueing window of the pool.
func WithOverloadHandler(fun func(time.Duration)) Option {
	return func(self *DB) { self.overload = fun }
}

// Extra monitor options, applied after the ones derived from `Config`.
func WithMonitorOptions(opts ...MonitorOption) Option {
	return func(self *DB) { self.monitorOpts = append(self.monitorOpts, opts...) }
}

// Name used in logs and metric labels. Defaults to the dialect name.
func WithName(val string) Option {
	return func(self *DB) { self.name = val }
}

/*
Entry point: one database with its pool and saturation monitor. Defines tables
and decorates statements so that they can be executed against it. Safe for
concurrent use.
*/
type DB struct {
	name        string
	conf        Config
	dialect     stmt.Dialect
	pool        *Pool
	monitor     *Monitor
	logger      *slog.Logger
	metrics     metrics.Backend
	overload    func(time.Duration)
	monitorOpts []MonitorOption
}

/*
Opens a database described by the config. The URL scheme must belong to a
registered driver. Configuration errors are logged and returned before any
connection is attempted; the database is pinged once so that unreachable
servers fail here rather than on the first query.
*/
func Open(ctx context.Context, conf Config, opts ...Option) (*DB, error) {
	self := newDB(conf, opts)

	backend, dialect, err := self.openBackend(ctx)
	if err != nil {
		self.logger.Error(`failed to open database`,
			slog.String(`db`, self.name),
			slog.String(`url`, Redact(conf.URL)),
			slog.Any(`error`, err),
		)
		return nil, err
	}

	self.init(backend, dialect)
	self.logger.Info(`opened database`,
		slog.String(`db`, self.name),
		slog.String(`dialect`, dialect.String()),
		slog.Int(`max_connections`, self.conf.Connections.Max),
	)
	return self, nil
}

// Creates a database over an already opened backend. Doesn't ping.
func New(backend Backend, dialect stmt.Dialect, conf Config, opts ...Option) *DB {
	self := newDB(conf, opts)
	self.init(backend, dialect)
	return self
}

func newDB(conf Config, opts []Option) *DB {
	self := &DB{
		conf:    conf.WithDefaults(),
		logger:  slog.New(slog.DiscardHandler),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(self)
	}
	return self
}

func (self *DB) openBackend(ctx context.Context) (Backend, stmt.Dialect, error) {
	src, err := self.conf.Parse()
	if err != nil {
		return nil, 0, err
	}

	drv, err := driverFor(src.Scheme)
	if err != nil {
		return nil, 0, err
	}
	if self.name == `` {
		self.name = drv.dialect.String()
	}

	backend, err := drv.open(ctx, src, self.conf.Connections)
	if err != nil {
		return nil, 0, Err{Code: ErrCodeConfig, While: `opening database`, Cause: err}
	}

	err = backend.Ping(ctx)
	if err != nil {
		_ = backend.Close()
		return nil, 0, err
	}
	return backend, drv.dialect, nil
}

func (self *DB) init(backend Backend, dialect stmt.Dialect) {
	if self.name == `` {
		self.name = dialect.String()
	}
	self.dialect = dialect

	opts := []MonitorOption{
		WithMonitorLogger(self.logger.With(slog.String(`db`, self.name))),
		WithWarnAfter(self.conf.BusyWarnAfter),
		WithOverload(self.onOverload),
	}
	self.monitor = NewMonitor(append(opts, self.monitorOpts...)...)
	self.pool = NewPool(backend, self.conf.Connections.Max, self.monitor, self.metrics)
	self.pool.labels = self.labels()
}

func (self *DB) onOverload(wait time.Duration) {
	self.metrics.IncCounter(metrics.PoolOverloadTotal, 1, self.labels())
	if self.overload != nil {
		self.overload(wait)
	}
}

func (self *DB) Name() string                   { return self.name }
func (self *DB) Config() Config                 { return self.conf }
func (self *DB) Dialect() stmt.Dialect          { return self.dialect }
func (self *DB) Pool() *Pool                    { return self.pool }
func (self *DB) Monitor() *Monitor              { return self.monitor }
func (self *DB) Logger() *slog.Logger           { return self.logger }
func (self *DB) Metrics() metrics.Backend       { return self.metrics }
func (self *DB) Ping(ctx context.Context) error { return self.pool.Ping(ctx) }

// Declares a table in the dialect of this database.
func (self *DB) Define(schema stmt.Schema) Table {
	return Table{table: stmt.NewTable(schema, self.dialect), db: self}
}

// Makes a statement executable against this database.
func (self *DB) Decorate(node stmt.Node) Query {
	return Query{node: node, db: self}
}

/*
Executes raw SQL on the shared pool, with placeholders in the native style of
the database. Errors are reported as `*ExecErr`. Rows aren't normalized.
*/
func (self *DB) Query(ctx context.Context, text string, args ...any) ([]Row, error) {
	return self.exec(ctx, self.pool, `raw`, text, args)
}

/*
Renders the expression with `$N` placeholders, converts them to the style of
the database, and executes the result like `DB.Query`.
*/
func (self *DB) QueryExpr(ctx context.Context, expr stmt.Expr) ([]Row, error) {
	text, args, err := stmt.Reify(expr)
	if err != nil {
		return nil, err
	}

	text, args, err = self.dialect.Rewrite(text, args)
	if err != nil {
		return nil, err
	}
	return self.exec(ctx, self.pool, `raw`, text, args)
}

// Acquires a dedicated connection from the pool. See `Pool.Conn`.
func (self *DB) Conn(ctx context.Context) (*Conn, error) {
	return self.pool.Conn(ctx)
}

/*
Non-blocking backpressure signal: true while connection requests have been
queueing for longer than the threshold. Counted in metrics when true.
*/
func (self *DB) TooBusy(threshold time.Duration) bool {
	out := self.monitor.TooBusy(threshold)
	if out {
		self.metrics.IncCounter(metrics.TooBusyRejectTotal, 1, self.labels())
	}
	return out
}

// Closes the pool and its backend, and flushes metrics.
func (self *DB) Close() error {
	err := self.pool.Close()
	if flushErr := self.metrics.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func (self *DB) labels() metrics.Labels {
	return metrics.Labels{`db`: self.name}
}

func (self *DB) exec(ctx context.Context, target Querier, kind, text string, args []any) ([]Row, error) {
	if self.conf.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.conf.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := target.QueryRows(ctx, text, args)
	elapsed := time.Since(start)
	metrics.RecordQuery(self.metrics, self.name, kind, err, elapsed)

	if err != nil {
		err = &ExecErr{Text: text, Args: args, Fingerprint: Fingerprint(text), Cause: err}
		self.logger.Debug(`query failed`,
			slog.String(`db`, self.name),
			slog.String(`sql`, text),
			slog.Duration(`elapsed`, elapsed),
			slog.Any(`error`, err),
		)
		return nil, err
	}

	self.logger.Debug(`query`,
		slog.String(`db`, self.name),
		slog.String(`sql`, text),
		slog.Int(`rows`, len(rows)),
		slog.Duration(`elapsed`, elapsed),
	)
	return rows, nil
}

// Hash of the SQL text, stable across argument values.
func Fingerprint(text string) uint64 { return xxh3.HashString(text) }
