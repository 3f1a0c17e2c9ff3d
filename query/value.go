package query

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the runtime type of a table cell.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt64
	KindFloat64
	KindText
)

// String returns the kind name used in error messages.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "integer"
	case KindFloat64:
		return "float"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Value is one typed cell of a table. The zero Value is Null.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
}

// NullValue returns the Null value.
func NullValue() Value { return Value{} }

// BoolValue returns a Bool value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an Int64 value.
func IntValue(i int64) Value { return Value{kind: KindInt64, i: i} }

// FloatValue returns a Float64 value.
func FloatValue(f float64) Value { return Value{kind: KindFloat64, f: f} }

// TextValue returns a Text value.
func TextValue(s string) Value { return Value{kind: KindText, s: s} }

// Kind returns the value's runtime type.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload (false unless Kind is Bool).
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload (0 unless Kind is Int64).
func (v Value) Int() int64 { return v.i }

// Float returns the float payload (0 unless Kind is Float64).
func (v Value) Float() float64 { return v.f }

// Text returns the string payload ("" unless Kind is Text).
func (v Value) Text() string { return v.s }

// String renders the value for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	}
	return ""
}

// asFloat coerces Int64 and Float64 values to float64.
func (v Value) asFloat() (float64, bool) {
	switch v.kind {
	case KindInt64:
		return float64(v.i), true
	case KindFloat64:
		return v.f, true
	}
	return 0, false
}

// epsilon is the base tolerance for float equality.
const epsilon = 1e-9

// floatsEqual reports approximate equality with the tolerance scaled by the
// larger magnitude, so big numbers keep a proportional margin.
func floatsEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	threshold := epsilon * math.Max(1.0, math.Max(math.Abs(a), math.Abs(b)))
	return diff < threshold
}

// valuesEqual reports dedup-style equality: Null equals Null, Int64 and
// Float64 compare numerically, everything else requires matching kinds.
func valuesEqual(a, b Value) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == b.kind
	}
	if af, ok := a.asFloat(); ok {
		bf, ok := b.asFloat()
		if !ok {
			return false
		}
		return floatsEqual(af, bf)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindText:
		return a.s == b.s
	}
	return false
}

// orderValues returns -1, 0, or +1 for sorting. Null sorts before any
// non-null value; Int64 and Float64 compare together; mismatched kinds
// order by kind so the ordering stays total.
func orderValues(a, b Value) int {
	if a.kind == KindNull && b.kind == KindNull {
		return 0
	}
	if a.kind == KindNull {
		return -1
	}
	if b.kind == KindNull {
		return 1
	}
	if af, aok := a.asFloat(); aok {
		if bf, bok := b.asFloat(); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if a.kind == b.kind {
		switch a.kind {
		case KindText:
			return strings.Compare(a.s, b.s)
		case KindBool:
			switch {
			case !a.b && b.b:
				return -1
			case a.b && !b.b:
				return 1
			}
			return 0
		}
	}
	switch {
	case a.kind < b.kind:
		return -1
	case a.kind > b.kind:
		return 1
	}
	return 0
}

// writeKey appends a canonical encoding for hash keys used by DISTINCT,
// GROUP BY, joins, and set operations. Text is quoted so it cannot collide
// with numeric or bool renderings; Int64 and Float64 share an encoding so
// 1 and 1.0 key identically, matching their comparison semantics.
func (v Value) writeKey(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("\x00null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt64:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat64:
		// Integral floats take the integer rendering so 1.0 keys like 1
		// at every magnitude.
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<62 {
			sb.WriteString(strconv.FormatInt(int64(v.f), 10))
			break
		}
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindText:
		sb.WriteString(strconv.Quote(v.s))
	}
}
