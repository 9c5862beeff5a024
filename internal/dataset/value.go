// Package dataset defines the in-memory tabular model shared by the parser,
// the join engine and the exporter.
//
// A Dataset is an ordered list of rows plus the ordered list of column names
// the source declared. Rows are maps from column name to Value, and a row is
// allowed to lack columns the dataset declares: reading such a column yields
// a Missing value, which is distinct from an explicit Null (an empty cell).
// The distinction matters to the join engine, which never reports a conflict
// for a column that one side does not define.
package dataset

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindMissing is the zero Kind: the column is absent from the row.
	KindMissing Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a tagged scalar cell value. The zero Value is Missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Missing returns the value of a column that a row does not define.
func Missing() Value { return Value{} }

// Null returns an explicit empty value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the absent-column marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNull reports whether v is an explicit empty value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether v is Missing or Null.
func (v Value) IsBlank() bool { return v.kind == KindMissing || v.kind == KindNull }

// Str returns the payload of a String value and "" otherwise.
func (v Value) Str() string { return v.str }

// Num returns the payload of a Number value and 0 otherwise.
func (v Value) Num() float64 { return v.num }

// Truth returns the payload of a Bool value and false otherwise.
func (v Value) Truth() bool { return v.b }

// Text returns the string normalization of v used for comparisons and key
// tokens. Blank values normalize to "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Any returns v as a plain Go value: string, float64, bool, or nil for
// blank values.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	switch v.kind {
	case KindMissing:
		return "<missing>"
	case KindNull:
		return "<null>"
	case KindString:
		return strconv.Quote(v.str)
	default:
		return v.Text()
	}
}

// MarshalJSON encodes blank values as null and the rest natively.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return json.Marshal(v.Text())
	}
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes null as Null and scalars into their variants.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nv, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

// FromAny converts a decoded scalar into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case Value:
		return t, nil
	default:
		return Value{}, &UnsupportedValueError{Value: x}
	}
}

// UnsupportedValueError is returned by FromAny for non-scalar input.
type UnsupportedValueError struct {
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return "unsupported cell value type"
}

// FormatNumber renders f the way spreadsheet tools print numbers: the
// shortest representation that round-trips, without an exponent for
// ordinary magnitudes.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseCell infers a Value from raw text cell content. Empty cells are Null,
// numeric literals are Numbers, TRUE/FALSE are Bools and everything else is
// a String. Identifiers with leading zeros ("007") stay strings.
func ParseCell(raw string) Value {
	if raw == "" {
		return Null()
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed != raw {
		return String(raw)
	}
	switch strings.ToLower(raw) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if numericRegex.MatchString(raw) && !hasLeadingZero(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(f)
		}
	}
	return String(raw)
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.' && s[1] != 'e' && s[1] != 'E'
}
