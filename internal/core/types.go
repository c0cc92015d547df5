package core

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies which payload a FieldValue carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindBool
	KindDateTime
	KindText
	KindUnrecognized
)

var kindNames = [...]string{
	KindNull:         "null",
	KindInt8:         "int8",
	KindInt16:        "int16",
	KindInt32:        "int32",
	KindInt64:        "int64",
	KindUInt8:        "uint8",
	KindUInt16:       "uint16",
	KindUInt32:       "uint32",
	KindUInt64:       "uint64",
	KindFloat32:      "float32",
	KindFloat64:      "float64",
	KindDecimal:      "decimal",
	KindBool:         "bool",
	KindDateTime:     "datetime",
	KindText:         "text",
	KindUnrecognized: "unrecognized",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsSigned reports whether k is one of the signed integer kinds.
func (k Kind) IsSigned() bool { return k >= KindInt8 && k <= KindInt64 }

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k Kind) IsUnsigned() bool { return k >= KindUInt8 && k <= KindUInt64 }

// IsFloat reports whether k carries a floating-point payload.
// Decimal values are stored as float64 after conversion.
func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 || k == KindDecimal }

// FieldValue is a classified field: a kind tag plus the single payload that
// tag selects. The zero value is Null.
//
// Accessors panic when called for the wrong kind. That is a programming
// error in the caller, never a data error.
type FieldValue struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	b    bool
	t    time.Time
	s    string
}

func Int8Value(v int8) FieldValue      { return FieldValue{kind: KindInt8, i: int64(v)} }
func Int16Value(v int16) FieldValue    { return FieldValue{kind: KindInt16, i: int64(v)} }
func Int32Value(v int32) FieldValue    { return FieldValue{kind: KindInt32, i: int64(v)} }
func Int64Value(v int64) FieldValue    { return FieldValue{kind: KindInt64, i: v} }
func UInt8Value(v uint8) FieldValue    { return FieldValue{kind: KindUInt8, u: uint64(v)} }
func UInt16Value(v uint16) FieldValue  { return FieldValue{kind: KindUInt16, u: uint64(v)} }
func UInt32Value(v uint32) FieldValue  { return FieldValue{kind: KindUInt32, u: uint64(v)} }
func UInt64Value(v uint64) FieldValue  { return FieldValue{kind: KindUInt64, u: v} }
func Float32Value(v float32) FieldValue { return FieldValue{kind: KindFloat32, f: float64(v)} }
func Float64Value(v float64) FieldValue { return FieldValue{kind: KindFloat64, f: v} }
func DecimalValue(v float64) FieldValue { return FieldValue{kind: KindDecimal, f: v} }
func NullValue() FieldValue             { return FieldValue{} }

// BoolValue stores b normalized to 0 or 1.
func BoolValue(b bool) FieldValue { return FieldValue{kind: KindBool, b: b} }

// DateTimeValue stores t truncated to whole seconds.
func DateTimeValue(t time.Time) FieldValue {
	return FieldValue{kind: KindDateTime, t: t.Truncate(time.Second)}
}

// TextValue stores an already trimmed, canonical (UTF-8) string.
func TextValue(s string) FieldValue { return FieldValue{kind: KindText, s: s} }

// UnrecognizedValue stores the textual fallback for a value whose type has no
// dedicated rendering rule. fallback may be empty.
func UnrecognizedValue(fallback string) FieldValue {
	return FieldValue{kind: KindUnrecognized, s: fallback}
}

// Kind returns the value's tag.
func (v FieldValue) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v FieldValue) IsNull() bool { return v.kind == KindNull }

// Int returns the payload of a signed integer kind.
func (v FieldValue) Int() int64 {
	v.must(v.kind.IsSigned(), "Int")
	return v.i
}

// Uint returns the payload of an unsigned integer kind.
func (v FieldValue) Uint() uint64 {
	v.must(v.kind.IsUnsigned(), "Uint")
	return v.u
}

// Float returns the payload of Float32, Float64 or Decimal.
func (v FieldValue) Float() float64 {
	v.must(v.kind.IsFloat(), "Float")
	return v.f
}

// Bool returns the payload of a Bool value.
func (v FieldValue) Bool() bool {
	v.must(v.kind == KindBool, "Bool")
	return v.b
}

// Time returns the payload of a DateTime value.
func (v FieldValue) Time() time.Time {
	v.must(v.kind == KindDateTime, "Time")
	return v.t
}

// Text returns the payload of Text, or the fallback text of Unrecognized.
func (v FieldValue) Text() string {
	v.must(v.kind == KindText || v.kind == KindUnrecognized, "Text")
	return v.s
}

func (v FieldValue) must(ok bool, accessor string) {
	if !ok {
		panic(fmt.Sprintf("core: FieldValue.%s called on %s value", accessor, v.kind))
	}
}

// Row holds one classified value per column, in cursor field order.
type Row []FieldValue

// ColumnHeader holds the column names in cursor field order.
type ColumnHeader []string

// State is the open/closed state of an external resource handle.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Handle is a stateful external resource that ScopedResource can release.
type Handle interface {
	State() State
	Close() error
}

// Opener establishes a connection from a connection descriptor.
// Failures should be returned as *ProviderError when the provider supplies a
// code or description.
type Opener interface {
	Open(ctx context.Context, descriptor string) (Connection, error)
}

// Connection is an open connection that can execute a query.
type Connection interface {
	Handle
	// Execute runs query forward-only and read-only and returns a cursor
	// positioned on the first row (or at end for an empty result).
	Execute(ctx context.Context, query string) (Cursor, error)
}

// Cursor is a forward-only, read-only view over a query result.
type Cursor interface {
	Handle
	FieldCount() int
	FieldName(i int) string
	// Value returns the raw dynamically typed value of field i in the
	// current row.
	Value(i int) (any, error)
	AtEnd() bool
	Advance() error
}
