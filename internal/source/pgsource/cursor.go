package pgsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/jackc/pgx/v5"
)

// beginner is satisfied by *pgx.Conn and *pgxpool.Conn.
type beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var readOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// execute starts a read-only transaction, runs query and primes the first
// row. Priming matters: pgx reports many execution errors only on the first
// fetch, and they belong to Execute, not to iteration.
func execute(ctx context.Context, b beginner, query string, closeTimeout time.Duration) (core.Cursor, error) {
	tx, err := b.BeginTx(ctx, readOnly)
	if err != nil {
		return nil, providerError(fmt.Errorf("begin read-only transaction: %w", err))
	}

	rows, err := tx.Query(ctx, query)
	if err != nil {
		_ = rollback(tx, closeTimeout)
		return nil, providerError(err)
	}

	c := &Cursor{rows: rows, tx: tx, closeTimeout: closeTimeout}
	if err := c.fetch(); err != nil {
		_ = c.Close()
		return nil, err
	}
	for _, fd := range rows.FieldDescriptions() {
		c.names = append(c.names, fd.Name)
	}
	return c, nil
}

func rollback(tx pgx.Tx, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// Cursor reads a result set forward only. The current row is fetched ahead,
// so AtEnd is answered without touching the network.
type Cursor struct {
	rows         pgx.Rows
	tx           pgx.Tx
	names        []string
	current      []any
	atEnd        bool
	closed       bool
	closeTimeout time.Duration
}

// fetch loads the next row into current, or marks the cursor at end.
func (c *Cursor) fetch() error {
	if c.rows.Next() {
		vals, err := c.rows.Values()
		if err != nil {
			return providerError(fmt.Errorf("read row values: %w", err))
		}
		c.current = vals
		return nil
	}
	c.atEnd = true
	c.current = nil
	if err := c.rows.Err(); err != nil {
		return providerError(err)
	}
	return nil
}

func (c *Cursor) FieldCount() int { return len(c.names) }

func (c *Cursor) FieldName(i int) string { return c.names[i] }

// Value returns field i of the current row.
func (c *Cursor) Value(i int) (any, error) {
	if c.atEnd {
		return nil, errors.New("cursor is at end of data")
	}
	if i < 0 || i >= len(c.current) {
		return nil, fmt.Errorf("field index %d out of range [0,%d)", i, len(c.current))
	}
	return c.current[i], nil
}

func (c *Cursor) AtEnd() bool { return c.atEnd }

// Advance moves to the next row.
func (c *Cursor) Advance() error {
	if c.atEnd {
		return errors.New("advance past end of data")
	}
	return c.fetch()
}

func (c *Cursor) State() core.State {
	if c.closed {
		return core.StateClosed
	}
	return core.StateOpen
}

// Close discards any unread rows and rolls back the read-only transaction.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rows.Close()
	return rollback(c.tx, c.closeTimeout)
}
