package pgsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCloseTimeout bounds how long closing a connection or rolling back
// the read-only transaction may take. Close runs during unwinding, often after
// the session context is already cancelled, so it uses its own deadline.
const DefaultCloseTimeout = 5 * time.Second

// Options tune connections opened by Opener.
type Options struct {
	ConnectTimeout  time.Duration
	ApplicationName string
	CloseTimeout    time.Duration
}

func (o Options) closeTimeout() time.Duration {
	if o.CloseTimeout <= 0 {
		return DefaultCloseTimeout
	}
	return o.CloseTimeout
}

// Descriptor builds a connection descriptor from a target locator. URLs
// ("postgres://...") and key=value DSNs pass through unchanged; anything else
// is taken as a database name on the default host.
func Descriptor(target string) string {
	t := strings.TrimSpace(target)
	if t == "" || strings.Contains(t, "://") || strings.Contains(t, "=") {
		return t
	}
	return "dbname=" + quoteDSNValue(t)
}

// quoteDSNValue quotes v for a key=value connection string when needed.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Opener opens a dedicated pgx connection per session.
type Opener struct {
	opts Options
}

// NewOpener returns an Opener using opts.
func NewOpener(opts Options) *Opener {
	return &Opener{opts: opts}
}

// Open parses descriptor and connects. Parse and connect failures come back
// as *core.ProviderError.
func (o *Opener) Open(ctx context.Context, descriptor string) (core.Connection, error) {
	cfg, err := pgx.ParseConfig(descriptor)
	if err != nil {
		return nil, providerError(fmt.Errorf("parse descriptor: %w", err))
	}
	if o.opts.ConnectTimeout > 0 {
		cfg.ConnectTimeout = o.opts.ConnectTimeout
	}
	if o.opts.ApplicationName != "" {
		if _, set := cfg.RuntimeParams["application_name"]; !set {
			cfg.RuntimeParams["application_name"] = o.opts.ApplicationName
		}
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, providerError(err)
	}
	return &Conn{conn: conn, opts: o.opts}, nil
}

// Conn is a dedicated connection.
type Conn struct {
	conn   *pgx.Conn
	opts   Options
	closed bool
}

// State reports StateClosed once Close ran or the server dropped the link.
func (c *Conn) State() core.State {
	if c.closed || c.conn == nil || c.conn.IsClosed() {
		return core.StateClosed
	}
	return core.StateOpen
}

// Close terminates the connection.
func (c *Conn) Close() error {
	c.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.closeTimeout())
	defer cancel()
	return c.conn.Close(ctx)
}

// Execute runs query in a read-only transaction.
func (c *Conn) Execute(ctx context.Context, query string) (core.Cursor, error) {
	return execute(ctx, c.conn, query, c.opts.closeTimeout())
}

// PoolOpener hands out connections from a shared pool. The descriptor passed
// to Open is ignored: the pool was configured up front.
type PoolOpener struct {
	pool *pgxpool.Pool
	opts Options
}

// NewPoolOpener returns an opener backed by pool.
func NewPoolOpener(pool *pgxpool.Pool, opts Options) *PoolOpener {
	return &PoolOpener{pool: pool, opts: opts}
}

// Open acquires a pooled connection.
func (o *PoolOpener) Open(ctx context.Context, _ string) (core.Connection, error) {
	pc, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, providerError(fmt.Errorf("acquire connection: %w", err))
	}
	return &PooledConn{conn: pc, opts: o.opts}, nil
}

// PooledConn is a connection borrowed from a pool. Closing it returns it to
// the pool rather than terminating it.
type PooledConn struct {
	conn     *pgxpool.Conn
	opts     Options
	released bool
}

// State reports StateClosed once the connection went back to the pool.
func (c *PooledConn) State() core.State {
	if c.released || c.conn == nil {
		return core.StateClosed
	}
	return core.StateOpen
}

// Close releases the connection back to the pool.
func (c *PooledConn) Close() error {
	c.released = true
	c.conn.Release()
	return nil
}

// Execute runs query in a read-only transaction.
func (c *PooledConn) Execute(ctx context.Context, query string) (core.Cursor, error) {
	return execute(ctx, c.conn, query, c.opts.closeTimeout())
}
