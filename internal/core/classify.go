package core

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Classifier maps raw driver values to FieldValues.
//
// The Go dynamic type of the raw value is its tag. Every tag maps to exactly
// one Kind; anything without a dedicated rule becomes KindUnrecognized with a
// best-effort textual fallback.
type Classifier struct {
	text *TextNormalizer
}

// NewClassifier returns a classifier that normalizes text with n.
// A nil n means UTF-8 source text.
func NewClassifier(n *TextNormalizer) *Classifier {
	return &Classifier{text: n}
}

// Classify converts raw into a FieldValue. The only failure is an
// EncodingError for text that cannot be converted to UTF-8.
func (c *Classifier) Classify(raw any) (FieldValue, error) {
	return c.classify(raw, true)
}

func (c *Classifier) classify(raw any, unwrap bool) (FieldValue, error) {
	switch v := raw.(type) {
	case nil:
		return NullValue(), nil

	case int8:
		return Int8Value(v), nil
	case int16:
		return Int16Value(v), nil
	case int32:
		return Int32Value(v), nil
	case int64:
		return Int64Value(v), nil
	case int:
		return Int64Value(int64(v)), nil

	case uint8:
		return UInt8Value(v), nil
	case uint16:
		return UInt16Value(v), nil
	case uint32:
		return UInt32Value(v), nil
	case uint64:
		return UInt64Value(v), nil
	case uint:
		return UInt64Value(uint64(v)), nil
	case uintptr:
		return UInt64Value(uint64(v)), nil

	case float32:
		return Float32Value(v), nil
	case float64:
		return Float64Value(v), nil

	case pgtype.Numeric:
		if !v.Valid {
			return NullValue(), nil
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return UnrecognizedValue(c.fallbackText(v)), nil
		}
		return DecimalValue(f.Float64), nil

	case bool:
		return BoolValue(v), nil

	case time.Time:
		return DateTimeValue(v), nil
	case pgtype.Date:
		return c.temporal(v.Valid, v.InfinityModifier, v.Time), nil
	case pgtype.Timestamp:
		return c.temporal(v.Valid, v.InfinityModifier, v.Time), nil
	case pgtype.Timestamptz:
		return c.temporal(v.Valid, v.InfinityModifier, v.Time), nil
	case pgtype.InfinityModifier:
		// rows.Values reports infinite dates and timestamps this way.
		return c.temporal(true, v, time.Time{}), nil

	case string:
		s, err := c.text.NormalizeString(v)
		if err != nil {
			return FieldValue{}, err
		}
		return TextValue(s), nil
	case []uint16:
		s, err := c.text.NormalizeWide(v)
		if err != nil {
			return FieldValue{}, err
		}
		return TextValue(s), nil

	case driver.Valuer:
		// pgtype wrappers (Int4, Text, Bool, ...) and database/sql Null*
		// types: classify the underlying value once.
		if unwrap {
			inner, err := v.Value()
			if err == nil {
				return c.classify(inner, false)
			}
		}
	}

	return UnrecognizedValue(c.fallbackText(raw)), nil
}

func (c *Classifier) temporal(valid bool, inf pgtype.InfinityModifier, t time.Time) FieldValue {
	switch {
	case !valid:
		return NullValue()
	case inf != pgtype.Finite:
		return UnrecognizedValue(inf.String())
	}
	return DateTimeValue(t)
}

// fallbackText reinterprets raw as text for KindUnrecognized. Only byte
// slices and fmt.Stringer values have a textual form; everything else (arrays,
// maps, composite values) falls back to "". Invalid text also yields "".
func (c *Classifier) fallbackText(raw any) string {
	var (
		s   string
		err error
	)
	switch v := raw.(type) {
	case []byte:
		s, err = c.text.NormalizeBytes(v)
	case fmt.Stringer:
		s, err = c.text.NormalizeString(v.String())
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return s
}

// HasTextFallback reports whether raw has a textual reinterpretation. Values
// without one render as an empty Unrecognized field.
func HasTextFallback(raw any) bool {
	switch raw.(type) {
	case []byte, fmt.Stringer:
		return true
	}
	return false
}
