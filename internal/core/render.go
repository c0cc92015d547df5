package core

import (
	"strconv"
)

// Delimiter terminates every rendered field and header column.
const Delimiter = '|'

// DateTimeLayout is the one layout DateTime values are rendered in.
const DateTimeLayout = "2006-01-02 15:04:05"

// RowRenderer turns headers and classified rows into delimited lines.
type RowRenderer struct {
	text *TextNormalizer
	buf  []byte
}

// NewRowRenderer returns a renderer that normalizes header names with n.
func NewRowRenderer(n *TextNormalizer) *RowRenderer {
	return &RowRenderer{text: n}
}

// RenderHeader renders column names as "A|B|\n".
func (r *RowRenderer) RenderHeader(header ColumnHeader) ([]byte, error) {
	r.buf = r.buf[:0]
	for _, name := range header {
		s, err := r.text.NormalizeString(name)
		if err != nil {
			return nil, err
		}
		r.buf = append(r.buf, s...)
		r.buf = append(r.buf, Delimiter)
	}
	r.buf = append(r.buf, '\n')
	return r.buf, nil
}

// RenderRow renders a classified row, one kind-prefixed field per column.
// The returned slice is reused by the next call.
func (r *RowRenderer) RenderRow(row Row) []byte {
	r.buf = r.buf[:0]
	for _, v := range row {
		r.buf = AppendField(r.buf, v)
	}
	r.buf = append(r.buf, '\n')
	return r.buf
}

// AppendField appends the rendering of v, including its trailing delimiter:
//
//	int: 42|  float: 2.5|  bool: 1|  date: 2024-03-05 13:07:00|
//	string: hello|  Value: NULL|  Value: <fallback>|
func AppendField(dst []byte, v FieldValue) []byte {
	switch k := v.Kind(); {
	case k.IsSigned():
		dst = append(dst, "int: "...)
		dst = strconv.AppendInt(dst, v.Int(), 10)
	case k.IsUnsigned():
		dst = append(dst, "int: "...)
		dst = strconv.AppendUint(dst, v.Uint(), 10)
	case k == KindFloat32:
		dst = append(dst, "float: "...)
		dst = strconv.AppendFloat(dst, v.Float(), 'g', -1, 32)
	case k == KindFloat64, k == KindDecimal:
		dst = append(dst, "float: "...)
		dst = strconv.AppendFloat(dst, v.Float(), 'g', -1, 64)
	case k == KindBool:
		dst = append(dst, "bool: "...)
		if v.Bool() {
			dst = append(dst, '1')
		} else {
			dst = append(dst, '0')
		}
	case k == KindDateTime:
		dst = append(dst, "date: "...)
		dst = v.Time().AppendFormat(dst, DateTimeLayout)
	case k == KindText:
		dst = append(dst, "string: "...)
		dst = append(dst, v.Text()...)
	case k == KindUnrecognized:
		dst = append(dst, "Value: "...)
		dst = append(dst, v.Text()...)
	default:
		dst = append(dst, "Value: NULL"...)
	}
	return append(dst, Delimiter)
}

// FormatField returns the rendering of a single field.
func FormatField(v FieldValue) string {
	return string(AppendField(nil, v))
}
