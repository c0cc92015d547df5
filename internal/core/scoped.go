package core

// scoped.go implements the release guard for connection and cursor handles.
//
// Each handle gets its own guard, released with its own defer, so a failure
// closing one handle never skips the other:
//
//	conn := Guard(c, logger)
//	defer conn.Release()
//	...
//	cur := Guard(k, logger)
//	defer cur.Release() // runs first

import (
	"fmt"
	"log/slog"
	"reflect"
)

// ScopedResource owns one handle and closes it at most once.
type ScopedResource[H Handle] struct {
	handle   H
	logger   *slog.Logger
	released bool
}

// Guard wraps h. A nil h (a resource that was never opened) is allowed and
// makes Release a no-op.
func Guard[H Handle](h H, logger *slog.Logger) *ScopedResource[H] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopedResource[H]{handle: h, logger: logger}
}

// Handle returns the guarded handle.
func (s *ScopedResource[H]) Handle() H {
	return s.handle
}

// Released reports whether Release has run.
func (s *ScopedResource[H]) Released() bool {
	return s.released
}

// Release closes the handle if it is open at the time of the call. It is
// idempotent, never returns an error and never panics: close failures are
// logged so they cannot mask the error that caused the unwind.
func (s *ScopedResource[H]) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true

	if isNilHandle(s.handle) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("resource release panicked",
				"handle", fmt.Sprintf("%T", s.handle),
				"panic", fmt.Sprint(r),
			)
		}
	}()

	// State is read now, not at Guard time; the handle may have been closed
	// explicitly since.
	if s.handle.State() != StateOpen {
		return
	}
	if err := s.handle.Close(); err != nil {
		s.logger.Warn("resource release failed",
			"handle", fmt.Sprintf("%T", s.handle),
			"error", err,
		)
	}
}

func isNilHandle(h any) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
