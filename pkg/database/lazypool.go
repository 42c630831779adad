package database

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("database pool is closed")

// PoolState is the lifecycle position of a LazyPool.
type PoolState int

const (
	PoolUninitialized PoolState = iota
	PoolConnecting
	PoolReady
	PoolClosed
)

func (s PoolState) String() string {
	switch s {
	case PoolUninitialized:
		return "uninitialized"
	case PoolConnecting:
		return "connecting"
	case PoolReady:
		return "ready"
	case PoolClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectFunc opens a new pool.
type ConnectFunc func(ctx context.Context) (*pgxpool.Pool, error)

// SetupFunc runs once against every freshly connected pool, before it is
// handed to callers. A setup error discards the pool.
type SetupFunc func(ctx context.Context, pool *pgxpool.Pool) error

type connectAttempt struct {
	done chan struct{}
	pool *pgxpool.Pool
	err  error
}

// LazyPool owns a process-wide pgx pool that is created on first use and
// dropped again when a connection-level error is reported through Invalidate,
// so the next Acquire reconnects. Concurrent callers that arrive while a
// connect is in flight share its outcome.
type LazyPool struct {
	connect        ConnectFunc
	setup          SetupFunc
	connectTimeout time.Duration
	logger         *slog.Logger

	mu      sync.Mutex
	pool    *pgxpool.Pool
	pending *connectAttempt
	closed  bool
}

// LazyPoolOption configures a LazyPool.
type LazyPoolOption func(*LazyPool)

// WithSetup registers a hook run on every new pool (migrations, metrics).
func WithSetup(fn SetupFunc) LazyPoolOption {
	return func(p *LazyPool) { p.setup = fn }
}

// WithConnectTimeout bounds a single connect attempt. Defaults to 10s.
func WithConnectTimeout(d time.Duration) LazyPoolOption {
	return func(p *LazyPool) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}

// NewLazyPool returns an uninitialized pool handle. Nothing is dialled until
// the first Acquire.
func NewLazyPool(connect ConnectFunc, logger *slog.Logger, opts ...LazyPoolOption) *LazyPool {
	p := &LazyPool{
		connect:        connect,
		connectTimeout: 10 * time.Second,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPostgresLazyPool builds a LazyPool that connects with NewPostgresPool.
func NewPostgresLazyPool(cfg PostgresConfig, logger *slog.Logger, opts ...LazyPoolOption) *LazyPool {
	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		return NewPostgresPool(ctx, &cfg)
	}
	if cfg.ConnectTimeout > 0 {
		opts = append([]LazyPoolOption{WithConnectTimeout(cfg.ConnectTimeout)}, opts...)
	}
	return NewLazyPool(connect, logger, opts...)
}

// Acquire returns the ready pool, connecting first if necessary. If ctx ends
// while waiting, ctx.Err() is returned but the shared attempt keeps running
// for the other waiters.
func (p *LazyPool) Acquire(ctx context.Context) (*pgxpool.Pool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.pool != nil {
		pool := p.pool
		p.mu.Unlock()
		return pool, nil
	}
	attempt := p.pending
	if attempt == nil {
		attempt = &connectAttempt{done: make(chan struct{})}
		p.pending = attempt
		go p.dial(context.WithoutCancel(ctx), attempt)
	}
	p.mu.Unlock()

	select {
	case <-attempt.done:
		return attempt.pool, attempt.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *LazyPool) dial(ctx context.Context, attempt *connectAttempt) {
	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	start := time.Now()
	pool, err := p.connect(ctx)
	if err == nil && p.setup != nil {
		if err = p.setup(ctx, pool); err != nil {
			pool.Close()
			pool = nil
		}
	}

	p.mu.Lock()
	p.pending = nil
	switch {
	case err != nil:
	case p.closed:
		pool.Close()
		pool, err = nil, ErrPoolClosed
	default:
		p.pool = pool
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.ErrorContext(ctx, "database connect failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
	} else {
		p.logger.InfoContext(ctx, "database pool ready", slog.Duration("duration", time.Since(start)))
	}

	attempt.pool, attempt.err = pool, err
	close(attempt.done)
}

// DB implements Provider.
func (p *LazyPool) DB(ctx context.Context) (DBTX, error) {
	pool, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Invalidate discards the current pool when err is a connection-level
// failure. Query errors such as constraint violations leave the pool alone.
func (p *LazyPool) Invalidate(err error) bool {
	if !IsConnectionError(err) {
		return false
	}

	p.mu.Lock()
	old := p.pool
	p.pool = nil
	p.mu.Unlock()

	if old == nil {
		return false
	}

	p.logger.Warn("database pool invalidated", slog.String("error", err.Error()))
	// Close waits for acquired connections to be released.
	go old.Close()
	return true
}

// State reports where the pool is in its lifecycle.
func (p *LazyPool) State() PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return PoolClosed
	case p.pool != nil:
		return PoolReady
	case p.pending != nil:
		return PoolConnecting
	default:
		return PoolUninitialized
	}
}

// Current returns the ready pool or nil without triggering a connect.
func (p *LazyPool) Current() *pgxpool.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool
}

// Ping acquires the pool and pings it. Connection failures invalidate it.
func (p *LazyPool) Ping(ctx context.Context) error {
	pool, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		p.Invalidate(err)
		return err
	}
	return nil
}

// Close releases the pool. Subsequent Acquire calls fail with ErrPoolClosed.
func (p *LazyPool) Close() {
	p.mu.Lock()
	old := p.pool
	p.pool = nil
	p.closed = true
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}
}
