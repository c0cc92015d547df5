package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/JonMunkholm/querydump/internal/logging"
)

// MaxQueryBodySize caps the JSON body of a query request (64KB).
const MaxQueryBodySize = 64 * 1024

// SessionErrorTrailer carries the diagnostic when a session fails after the
// result stream has started and the status line can no longer change.
const SessionErrorTrailer = "X-Session-Error"

// healthPingTimeout bounds the database ping in the health check.
const healthPingTimeout = 2 * time.Second

type queryRequest struct {
	Query string `json:"query"`
}

// handleQuery runs one session against the configured database and streams
// the delimited result as text/plain.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxQueryBodySize)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondError(w, r, badRequest("query is required"), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := s.deps.Limiter.Acquire(ctx); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer s.deps.Limiter.Release()

	if t := s.cfg.Session.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	logger := logging.FromContext(ctx)
	session := core.NewSession(s.deps.Opener,
		core.WithNormalizer(s.deps.Normalizer),
		core.WithLogger(logger),
	)
	w.Header().Set("X-Session-ID", session.ID())

	out := newStreamWriter(w)
	sum, err := session.Run(ctx, "", query, out)
	if err != nil {
		if !out.started {
			respondError(w, r, err, statusFor(err))
			return
		}
		// Rows already went out with a 200; report through the trailer.
		w.Header().Set(SessionErrorTrailer, core.Diagnostic(err))
		logger.Error("session failed mid-stream",
			"session_id", sum.SessionID,
			"rows", sum.Rows,
			"error", err,
			"code", core.MapError(err).Code,
		)
		return
	}

	logger.Info("query complete",
		"session_id", sum.SessionID,
		"columns", len(sum.Columns),
		"rows", sum.Rows,
		"bytes", sum.Bytes,
		"duration_ms", sum.Duration.Milliseconds(),
	)
}

// badRequest builds a query-kind error for malformed requests so it maps to
// a QRY code.
func badRequest(format string, args ...any) error {
	return &core.SessionError{
		Kind:        core.KindQueryError,
		Description: fmt.Sprintf(format, args...),
	}
}

// streamWriter commits the 200 status on the first write and flushes after
// every write so rows reach the client while the cursor is still open.
type streamWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	return &streamWriter{w: w, rc: http.NewResponseController(w)}
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	if !sw.started {
		sw.started = true
		h := sw.w.Header()
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("Trailer", SessionErrorTrailer)
		sw.w.WriteHeader(http.StatusOK)
	}
	n, err := sw.w.Write(p)
	if err != nil {
		return n, err
	}
	if ferr := sw.rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
		return n, ferr
	}
	return n, nil
}

type healthResponse struct {
	Status   string                    `json:"status"`
	Database string                    `json:"database,omitempty"`
	Sessions core.SessionLimiterStatus `json:"sessions"`
}

// handleHealth reports limiter occupancy and, when configured, whether the
// database answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Sessions: s.deps.Limiter.Status(),
	}
	status := http.StatusOK

	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check: database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, status, resp)
}
