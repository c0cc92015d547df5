package core

import (
	"io"
	"math/big"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/jackc/pgx/v5/pgtype"
)

// ============================================================================
// Classification Benchmarks
// ============================================================================

// benchRow is a typical mixed row as returned by rows.Values.
var benchRow = []any{
	int32(42),
	int64(9_000_000_001),
	"  Widget, large  ",
	pgtype.Numeric{Int: big.NewInt(1999), Exp: -2, Valid: true},
	true,
	time.Date(2024, 3, 5, 13, 7, 0, 0, time.UTC),
	nil,
	3.14159,
}

// BenchmarkClassify_Row classifies one mixed row per iteration.
// This is the per-field hot path of every session.
func BenchmarkClassify_Row(b *testing.B) {
	c := NewClassifier(nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, raw := range benchRow {
			if _, err := c.Classify(raw); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkClassify_ASCIIText benchmarks the fast path for plain text.
func BenchmarkClassify_ASCIIText(b *testing.B) {
	c := NewClassifier(nil)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Classify("  ACME Corporation  ")
	}
}

// BenchmarkClassify_WideText benchmarks UTF-16 decoding.
func BenchmarkClassify_WideText(b *testing.B) {
	c := NewClassifier(nil)
	units := utf16.Encode([]rune("  Zürich, Genève, Москва  "))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Classify(units)
	}
}

// BenchmarkClassify_LegacyBytes benchmarks windows-1252 decoding of a byte
// payload through the fallback path.
func BenchmarkClassify_LegacyBytes(b *testing.B) {
	n, err := NewTextNormalizer("windows-1252")
	if err != nil {
		b.Fatal(err)
	}
	c := NewClassifier(n)
	raw := []byte("caf\xe9 cr\xe8me br\xfbl\xe9e")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Classify(raw)
	}
}

// ============================================================================
// Rendering Benchmarks
// ============================================================================

// BenchmarkRenderRow benchmarks rendering a classified row. The renderer
// reuses its buffer, so steady state should not allocate.
func BenchmarkRenderRow(b *testing.B) {
	c := NewClassifier(nil)
	row := make(Row, len(benchRow))
	for i, raw := range benchRow {
		v, err := c.Classify(raw)
		if err != nil {
			b.Fatal(err)
		}
		row[i] = v
	}
	r := NewRowRenderer(nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Discard.Write(r.RenderRow(row))
	}
}

// BenchmarkAppendField_Float benchmarks shortest round-trip float formatting.
func BenchmarkAppendField_Float(b *testing.B) {
	v := Float64Value(1234567.891)
	buf := make([]byte, 0, 64)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = AppendField(buf[:0], v)
	}
}

// BenchmarkAppendField_DateTime benchmarks the fixed date layout.
func BenchmarkAppendField_DateTime(b *testing.B) {
	v := DateTimeValue(time.Date(2024, 3, 5, 13, 7, 0, 0, time.UTC))
	buf := make([]byte, 0, 64)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = AppendField(buf[:0], v)
	}
}
