package core

// session.go runs one query end to end:
//
//	Created -> ConnectionOpen -> CursorOpen -> Iterating -> Done
//
// with Error reachable from every state before Done. The connection and the
// cursor are each held by their own ScopedResource, so whatever way Run exits
// the cursor is released first and the connection second.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	SessionCreated SessionState = iota
	SessionConnectionOpen
	SessionCursorOpen
	SessionIterating
	SessionDone
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionCreated:
		return "created"
	case SessionConnectionOpen:
		return "connection_open"
	case SessionCursorOpen:
		return "cursor_open"
	case SessionIterating:
		return "iterating"
	case SessionDone:
		return "done"
	case SessionFailed:
		return "error"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Summary describes a completed (or partially completed) run.
type Summary struct {
	SessionID string
	Columns   ColumnHeader
	Rows      int
	Bytes     int64 // bytes delivered to the output writer
	Duration  time.Duration
}

// countingWriter tracks bytes that reached the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Session is a single-use query run. It is not safe for concurrent use.
type Session struct {
	id         uuid.UUID
	opener     Opener
	classifier *Classifier
	renderer   *RowRenderer
	logger     *slog.Logger
	state      SessionState
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNormalizer sets the text normalizer used for headers and text values.
func WithNormalizer(n *TextNormalizer) SessionOption {
	return func(s *Session) {
		s.classifier = NewClassifier(n)
		s.renderer = NewRowRenderer(n)
	}
}

// WithLogger sets the base logger. The session adds its session_id.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession returns a session that opens connections with opener.
func NewSession(opener Opener, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.New(),
		opener:     opener,
		classifier: NewClassifier(nil),
		renderer:   NewRowRenderer(nil),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id.String())
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id.String() }

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Run opens a connection with descriptor, executes query and writes the
// header line followed by one line per row to w.
//
// On failure both resources are released before Run returns a *SessionError.
// Output already written to w is not retracted.
func (s *Session) Run(ctx context.Context, descriptor, query string, w io.Writer) (sum Summary, err error) {
	if s.state != SessionCreated {
		return sum, &SessionError{
			Kind:        KindUnclassifiedError,
			Description: "session already run (state " + s.state.String() + ")",
		}
	}

	start := time.Now()
	sum.SessionID = s.ID()
	cw := &countingWriter{w: w}
	out := bufio.NewWriter(cw)

	// Deferred first, so it runs after both guards have released.
	defer func() {
		if r := recover(); r != nil {
			err = &SessionError{
				Kind:        KindUnclassifiedError,
				Description: fmt.Sprintf("unexpected failure: %v", r),
			}
		}
		if ferr := out.Flush(); ferr != nil && err == nil {
			err = classifyError(KindUnclassifiedError, fmt.Errorf("write output: %w", ferr))
		}
		sum.Bytes = cw.n
		sum.Duration = time.Since(start)

		if err != nil {
			s.state = SessionFailed
			s.logger.Debug("session failed",
				"error", err,
				"code", MapError(err).Code,
				"rows", sum.Rows,
				"duration_ms", sum.Duration.Milliseconds(),
			)
			return
		}
		s.state = SessionDone
		s.logger.Debug("session complete",
			"rows", sum.Rows,
			"bytes", sum.Bytes,
			"columns", len(sum.Columns),
			"duration_ms", sum.Duration.Milliseconds(),
		)
	}()

	s.logger.Debug("opening connection")
	c, err := s.opener.Open(ctx, descriptor)
	conn := Guard(c, s.logger)
	defer conn.Release()
	if err != nil {
		return sum, classifyError(KindConnectionError, err)
	}
	if isNilHandle(c) {
		return sum, &SessionError{Kind: KindConnectionError, Description: "opener returned no connection"}
	}
	s.state = SessionConnectionOpen

	s.logger.Debug("executing query")
	k, err := c.Execute(ctx, query)
	cur := Guard(k, s.logger)
	defer cur.Release()
	if err != nil {
		return sum, classifyError(KindQueryError, err)
	}
	if isNilHandle(k) {
		return sum, &SessionError{Kind: KindQueryError, Description: "query returned no cursor"}
	}
	s.state = SessionCursorOpen

	header := make(ColumnHeader, k.FieldCount())
	for i := range header {
		header[i] = k.FieldName(i)
	}
	line, err := s.renderer.RenderHeader(header)
	if err != nil {
		return sum, err
	}
	if _, err := out.Write(line); err != nil {
		return sum, classifyError(KindUnclassifiedError, fmt.Errorf("write header: %w", err))
	}
	sum.Columns = header
	s.state = SessionIterating

	err = s.iterate(ctx, k, header, out, &sum)
	return sum, err
}

// iterate renders rows until the cursor reports end of data.
func (s *Session) iterate(ctx context.Context, k Cursor, header ColumnHeader, out io.Writer, sum *Summary) error {
	row := make(Row, len(header))
	flagged := make(map[int]bool)

	for !k.AtEnd() {
		if err := ctx.Err(); err != nil {
			return classifyError(KindUnclassifiedError, fmt.Errorf("session interrupted: %w", err))
		}

		for i := range row {
			raw, err := k.Value(i)
			if err != nil {
				return classifyError(KindQueryError, err)
			}
			v, err := s.classifier.Classify(raw)
			if err != nil {
				var se *SessionError
				if errors.As(err, &se) && se.Kind == KindEncodingError {
					se.Description = fmt.Sprintf("column %q row %d: %s", header[i], sum.Rows+1, se.Description)
				}
				return err
			}
			if v.Kind() == KindUnrecognized && !flagged[i] {
				flagged[i] = true
				s.logger.Warn("column has no rendering rule, using text fallback",
					"column", header[i],
					"type", fmt.Sprintf("%T", raw),
					"has_text", HasTextFallback(raw),
				)
			}
			row[i] = v
		}

		if _, err := out.Write(s.renderer.RenderRow(row)); err != nil {
			return classifyError(KindUnclassifiedError, fmt.Errorf("write row: %w", err))
		}
		sum.Rows++

		if err := k.Advance(); err != nil {
			return classifyError(KindQueryError, err)
		}
	}
	return nil
}
