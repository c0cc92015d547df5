// Package memsource is an in-memory data source: canned results keyed by
// query text, with optional fault injection at every step of a session. It
// backs the tests of the session, CLI and HTTP layers and can serve demo data.
package memsource

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/querydump/internal/core"
)

// Result is a canned query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Faults injects failures. Zero value means no faults.
type Faults struct {
	Open        error // returned by Open
	OpenPartial bool  // with Open set, also return an open connection
	Execute     error // returned by Execute
	Fetch       error // returned by Advance when moving onto row FetchAt
	FetchAt     int
	CloseConn   error // returned by Connection.Close
	CloseCursor error // returned by Cursor.Close
}

// Stats counts calls made against the source.
type Stats struct {
	Opens        int
	Executes     int
	ConnCloses   int
	CursorCloses int

	// CloseOrder lists "cursor" and "conn" in the order Close was called.
	CloseOrder []string
}

// Source implements core.Opener over registered results.
type Source struct {
	mu      sync.Mutex
	results map[string]Result
	faults  Faults
	stats   Stats
}

// New creates an empty source.
func New() *Source {
	return &Source{results: make(map[string]Result)}
}

// Register makes query return r.
func (s *Source) Register(query string, r Result) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[query] = r
	return s
}

// SetFaults replaces the injected faults.
func (s *Source) SetFaults(f Faults) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
	return s
}

// Stats returns a snapshot of the call counters.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.CloseOrder = append([]string(nil), s.stats.CloseOrder...)
	return st
}

func (s *Source) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

// Open returns a connection. The descriptor is recorded but not interpreted.
func (s *Source) Open(ctx context.Context, descriptor string) (core.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	f := s.faults
	s.mu.Unlock()

	if f.Open != nil {
		if f.OpenPartial {
			s.count(func(st *Stats) { st.Opens++ })
			return &Conn{src: s, descriptor: descriptor, open: true}, f.Open
		}
		return nil, f.Open
	}
	s.count(func(st *Stats) { st.Opens++ })
	return &Conn{src: s, descriptor: descriptor, open: true}, nil
}

// Conn is an in-memory connection.
type Conn struct {
	src        *Source
	descriptor string
	open       bool
}

// Descriptor returns the descriptor the connection was opened with.
func (c *Conn) Descriptor() string { return c.descriptor }

func (c *Conn) State() core.State {
	if c.open {
		return core.StateOpen
	}
	return core.StateClosed
}

func (c *Conn) Close() error {
	c.open = false
	c.src.count(func(st *Stats) {
		st.ConnCloses++
		st.CloseOrder = append(st.CloseOrder, "conn")
	})
	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	return c.src.faults.CloseConn
}

// Execute looks up query among the registered results.
func (c *Conn) Execute(ctx context.Context, query string) (core.Cursor, error) {
	if !c.open {
		return nil, &core.ProviderError{Code: "08003", Description: "connection is closed"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.src.mu.Lock()
	f := c.src.faults
	r, ok := c.src.results[query]
	c.src.stats.Executes++
	c.src.mu.Unlock()

	if f.Execute != nil {
		return nil, f.Execute
	}
	if !ok {
		return nil, &core.ProviderError{
			Code:        "42P01",
			Description: fmt.Sprintf("no result registered for query %q", query),
		}
	}
	return &Cursor{src: c.src, result: r, faults: f, open: true}, nil
}

// Cursor walks a Result forward only.
type Cursor struct {
	src    *Source
	result Result
	faults Faults
	pos    int
	open   bool
}

func (k *Cursor) State() core.State {
	if k.open {
		return core.StateOpen
	}
	return core.StateClosed
}

func (k *Cursor) Close() error {
	k.open = false
	k.src.count(func(st *Stats) {
		st.CursorCloses++
		st.CloseOrder = append(st.CloseOrder, "cursor")
	})
	return k.faults.CloseCursor
}

func (k *Cursor) FieldCount() int { return len(k.result.Columns) }

func (k *Cursor) FieldName(i int) string { return k.result.Columns[i] }

func (k *Cursor) Value(i int) (any, error) {
	if k.AtEnd() {
		return nil, fmt.Errorf("cursor is at end of data")
	}
	row := k.result.Rows[k.pos]
	if i < 0 || i >= len(row) {
		return nil, fmt.Errorf("field index %d out of range [0,%d)", i, len(row))
	}
	return row[i], nil
}

func (k *Cursor) AtEnd() bool { return k.pos >= len(k.result.Rows) }

func (k *Cursor) Advance() error {
	if k.AtEnd() {
		return fmt.Errorf("advance past end of data")
	}
	k.pos++
	if k.faults.Fetch != nil && k.pos == k.faults.FetchAt {
		return k.faults.Fetch
	}
	return nil
}
