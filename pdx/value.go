package pdx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Neumenon/clausewitz/stream"
)

// Kind identifies which variant of the Clausewitz value union a Value
// holds.
type Kind uint8

const (
	KindBool Kind = iota
	KindNumber
	KindDate
	KindString
	KindHsv
	KindRgb
	KindArray
	KindRecord
)

// String returns the kind's name, as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindString:
		return "string"
	case KindHsv:
		return "hsv"
	case KindRgb:
		return "rgb"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Pair is one (key, value) entry of a Record. Keys are not unique within
// a Record; order and duplicates are preserved exactly as parsed.
type Pair struct {
	Key   string
	Value *Value
}

// Value is the tagged union every Clausewitz document parses into. Once
// built it is immutable: parsers construct values bottom-up and never
// mutate them afterwards, so a Value tree may be shared freely.
type Value struct {
	kind Kind

	boolVal bool
	numVal  float64
	dateVal stream.Date
	strVal  string
	triple  [3]float64 // hsv: h, s, v
	rgbVal  [3]byte

	arrVal []*Value
	recVal []Pair
}

// Bool constructs a boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBool, boolVal: b} }

// Number constructs a numeric value. The format uses one numeric
// representation for both integers and floats.
func Number(n float64) *Value { return &Value{kind: KindNumber, numVal: n} }

// DateValue constructs a calendar date value.
func DateValue(d stream.Date) *Value { return &Value{kind: KindDate, dateVal: d} }

// String constructs a string value.
func String(s string) *Value { return &Value{kind: KindString, strVal: s} }

// Hsv constructs a colour value in the text-only HSV representation.
func Hsv(h, s, v float64) *Value {
	return &Value{kind: KindHsv, triple: [3]float64{h, s, v}}
}

// Rgb constructs a colour value in the text-only RGB representation.
func Rgb(r, g, b byte) *Value {
	return &Value{kind: KindRgb, rgbVal: [3]byte{r, g, b}}
}

// Array constructs an ordered, possibly heterogeneous sequence.
func Array(elems ...*Value) *Value {
	return &Value{kind: KindArray, arrVal: elems}
}

// Record constructs an ordered multimap of (key, value) pairs.
func Record(pairs ...Pair) *Value {
	return &Value{kind: KindRecord, recVal: pairs}
}

// Kind reports which variant v holds.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindRecord
	}
	return v.kind
}

// String renders v as Clausewitz text, the same grammar Save emits,
// except it tolerates any top-level Value (Save requires a Record).
func (v *Value) String() string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v *Value) {
	if v == nil {
		sb.WriteString("{}")
		return
	}
	switch v.kind {
	case KindBool:
		if v.boolVal {
			sb.WriteString("yes")
		} else {
			sb.WriteString("no")
		}
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.numVal, 'f', 3, 64))
	case KindDate:
		d := v.dateVal
		if d.HasHour {
			fmt.Fprintf(sb, "%d.%d.%d.%d", d.Year, d.Month, d.Day, d.Hour)
		} else {
			fmt.Fprintf(sb, "%d.%d.%d", d.Year, d.Month, d.Day)
		}
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(v.strVal)
		sb.WriteByte('"')
	case KindHsv:
		fmt.Fprintf(sb, "hsv { %v %v %v }", v.triple[0], v.triple[1], v.triple[2])
	case KindRgb:
		fmt.Fprintf(sb, "rgb { %d %d %d }", v.rgbVal[0], v.rgbVal[1], v.rgbVal[2])
	case KindArray:
		sb.WriteByte('{')
		for i, e := range v.arrVal {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeValue(sb, e)
		}
		sb.WriteByte('}')
	case KindRecord:
		sb.WriteByte('{')
		for i, p := range v.recVal {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.Key)
			sb.WriteByte('=')
			writeValue(sb, p.Value)
		}
		sb.WriteByte('}')
	}
}
