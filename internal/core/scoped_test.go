package core

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// fakeHandle counts Close calls.
type fakeHandle struct {
	state    State
	closes   int
	closeErr error
	panicMsg string
}

func (h *fakeHandle) State() State { return h.state }

func (h *fakeHandle) Close() error {
	h.closes++
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	h.state = StateClosed
	return h.closeErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestScopedResource_ClosesOpenHandleOnce(t *testing.T) {
	h := &fakeHandle{state: StateOpen}
	g := Guard(h, discardLogger())

	g.Release()
	g.Release()

	if h.closes != 1 {
		t.Errorf("Close called %d times, want 1", h.closes)
	}
	if !g.Released() {
		t.Error("Released() = false after Release")
	}
}

func TestScopedResource_SkipsClosedHandle(t *testing.T) {
	h := &fakeHandle{state: StateClosed}
	Guard(h, discardLogger()).Release()

	if h.closes != 0 {
		t.Errorf("Close called %d times on a closed handle", h.closes)
	}
}

func TestScopedResource_StateReadAtRelease(t *testing.T) {
	tests := []struct {
		name       string
		initial    State
		later      State
		wantCloses int
	}{
		{"opened after guard", StateClosed, StateOpen, 1},
		{"closed after guard", StateOpen, StateClosed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{state: tt.initial}
			g := Guard(h, discardLogger())
			h.state = tt.later
			g.Release()

			if h.closes != tt.wantCloses {
				t.Errorf("Close called %d times, want %d", h.closes, tt.wantCloses)
			}
		})
	}
}

func TestScopedResource_NilHandle(t *testing.T) {
	var h *fakeHandle
	g := Guard(h, nil)
	g.Release() // must not panic

	var nilIface Handle
	Guard(nilIface, nil).Release()

	var nilGuard *ScopedResource[Handle]
	nilGuard.Release()
}

func TestScopedResource_CloseErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	h := &fakeHandle{state: StateOpen, closeErr: errors.New("socket gone")}

	Guard(h, slog.New(slog.NewTextHandler(&buf, nil))).Release()

	if h.closes != 1 {
		t.Errorf("Close called %d times, want 1", h.closes)
	}
	out := buf.String()
	if !strings.Contains(out, "resource release failed") || !strings.Contains(out, "socket gone") {
		t.Errorf("close error not logged: %s", out)
	}
}

func TestScopedResource_ClosePanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	h := &fakeHandle{state: StateOpen, panicMsg: "driver exploded"}

	Guard(h, slog.New(slog.NewTextHandler(&buf, nil))).Release()

	if !strings.Contains(buf.String(), "driver exploded") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

// A failing inner release must not prevent the outer one.
func TestScopedResource_NestedReleaseOrder(t *testing.T) {
	var order []string
	conn := &orderedHandle{name: "conn", order: &order}
	cur := &orderedHandle{name: "cursor", order: &order, err: errors.New("cursor close failed")}

	func() {
		c := Guard(conn, discardLogger())
		defer c.Release()
		k := Guard(cur, discardLogger())
		defer k.Release()
	}()

	if got := strings.Join(order, ","); got != "cursor,conn" {
		t.Errorf("release order = %s, want cursor,conn", got)
	}
}

type orderedHandle struct {
	name   string
	order  *[]string
	closed bool
	err    error
}

func (h *orderedHandle) State() State {
	if h.closed {
		return StateClosed
	}
	return StateOpen
}

func (h *orderedHandle) Close() error {
	h.closed = true
	*h.order = append(*h.order, h.name)
	return h.err
}
