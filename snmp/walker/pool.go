package walker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// PoolOptions configures the connection pool behaviour.
type PoolOptions struct {
	// MaxIdlePerKey is the maximum number of idle sessions kept per
	// target+credential pair (default 2). Excess sessions returned via Put
	// are closed immediately.
	MaxIdlePerKey int

	// MaxConcurrentPerKey limits in-flight sessions per target+credential
	// pair (default 2). The orchestrator's step 1 runs LLDP and CDP walks
	// concurrently against the same target, so the default allows both.
	MaxConcurrentPerKey int

	// IdleTimeout is how long an idle session remains in the pool before
	// being discarded. Zero means no expiry.
	IdleTimeout time.Duration

	// Session carries transport parameters applied by the default dialer.
	Session Options

	// Dial is the function used to create new gosnmp sessions.
	// Defaults to NewSession (with o.Session) when nil.
	Dial func(target string, cred Credential) (*gosnmp.GoSNMP, error)
}

func (o *PoolOptions) defaults() {
	if o.MaxIdlePerKey <= 0 {
		o.MaxIdlePerKey = 2
	}
	if o.MaxConcurrentPerKey <= 0 {
		o.MaxConcurrentPerKey = 2
	}
	if o.Dial == nil {
		opts := o.Session
		o.Dial = func(target string, cred Credential) (*gosnmp.GoSNMP, error) {
			return NewSession(target, cred, opts)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Connection pool
// ─────────────────────────────────────────────────────────────────────────────

// poolEntry is a single idle connection together with the time it was returned.
type poolEntry struct {
	conn       *gosnmp.GoSNMP
	returnedAt time.Time
}

// keyPool is the per-key idle list + concurrency semaphore.
type keyPool struct {
	mu   sync.Mutex
	idle []poolEntry // LIFO stack

	sem chan struct{}
}

// ConnectionPool manages gosnmp sessions keyed by target and credential.
// The orchestrator walks several MIB tables per device across its fallback
// steps; the pool lets those walks reuse one UDP session instead of
// re-connecting per table.
type ConnectionPool struct {
	opts   PoolOptions
	logger *slog.Logger

	mu    sync.RWMutex
	pools map[string]*keyPool // target|credential → pool

	closed chan struct{}
}

// NewConnectionPool creates a ready-to-use pool.
func NewConnectionPool(opts PoolOptions, logger *slog.Logger) *ConnectionPool {
	opts.defaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &ConnectionPool{
		opts:   opts,
		logger: logger,
		pools:  make(map[string]*keyPool),
		closed: make(chan struct{}),
	}
}

func poolKey(target string, cred Credential) string {
	return target + "|" + cred.Label()
}

// Get acquires a session for target under cred. It blocks if the per-key
// concurrency limit has been reached, and respects context cancellation.
func (p *ConnectionPool) Get(ctx context.Context, target string, cred Credential) (*gosnmp.GoSNMP, error) {
	kp := p.getOrCreatePool(poolKey(target, cred))

	// Fast path: reject immediately if the pool is closed.
	select {
	case <-p.closed:
		return nil, fmt.Errorf("walker: pool closed")
	default:
	}

	// Acquire concurrency slot.
	select {
	case kp.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, fmt.Errorf("walker: pool closed")
	}

	// Try to reuse an idle connection.
	if conn := p.popIdle(kp); conn != nil {
		return conn, nil
	}

	// Dial a new session.
	conn, err := p.opts.Dial(target, cred)
	if err != nil {
		// Release semaphore slot on failure.
		<-kp.sem
		return nil, err
	}
	return conn, nil
}

// Put returns a connection to the idle pool for reuse. If the pool is full
// the connection is closed. Put also releases the per-key concurrency slot.
func (p *ConnectionPool) Put(target string, cred Credential, conn *gosnmp.GoSNMP) {
	kp := p.getPool(poolKey(target, cred))
	if kp == nil {
		closeConn(conn)
		return
	}
	defer func() { <-kp.sem }() // Release concurrency slot.

	kp.mu.Lock()
	defer kp.mu.Unlock()

	if len(kp.idle) >= p.opts.MaxIdlePerKey {
		closeConn(conn)
		return
	}
	kp.idle = append(kp.idle, poolEntry{conn: conn, returnedAt: time.Now()})
}

// Discard closes a connection and releases the per-key concurrency slot
// without putting it back into the pool. Use this when a connection is known
// to be broken.
func (p *ConnectionPool) Discard(target string, cred Credential, conn *gosnmp.GoSNMP) {
	closeConn(conn)
	if kp := p.getPool(poolKey(target, cred)); kp != nil {
		<-kp.sem
	}
}

// Close drains all idle connections and prevents new Get calls.
func (p *ConnectionPool) Close() error {
	select {
	case <-p.closed:
		return nil // Already closed.
	default:
	}
	close(p.closed)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, kp := range p.pools {
		kp.mu.Lock()
		for _, e := range kp.idle {
			closeConn(e.conn)
		}
		kp.idle = nil
		kp.mu.Unlock()
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (p *ConnectionPool) getOrCreatePool(key string) *keyPool {
	p.mu.RLock()
	kp, ok := p.pools[key]
	p.mu.RUnlock()
	if ok {
		return kp
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double-check under write lock.
	if kp, ok = p.pools[key]; ok {
		return kp
	}
	kp = &keyPool{
		idle: make([]poolEntry, 0, p.opts.MaxIdlePerKey),
		sem:  make(chan struct{}, p.opts.MaxConcurrentPerKey),
	}
	p.pools[key] = kp
	return kp
}

func (p *ConnectionPool) getPool(key string) *keyPool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pools[key]
}

func (p *ConnectionPool) popIdle(kp *keyPool) *gosnmp.GoSNMP {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	for len(kp.idle) > 0 {
		// Pop from the end (LIFO).
		n := len(kp.idle) - 1
		entry := kp.idle[n]
		kp.idle = kp.idle[:n]

		// Check idle timeout.
		if p.opts.IdleTimeout > 0 && time.Since(entry.returnedAt) > p.opts.IdleTimeout {
			closeConn(entry.conn)
			continue
		}
		return entry.conn
	}
	return nil
}

func closeConn(conn *gosnmp.GoSNMP) {
	if conn != nil && conn.Conn != nil {
		_ = conn.Conn.Close()
	}
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(b []byte) (int, error) { return len(b), nil }
