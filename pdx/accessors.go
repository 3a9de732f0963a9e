package pdx

import (
	"fmt"

	"github.com/Neumenon/clausewitz/stream"
)

// Prop looks up the first pair with the given key and fails if the
// receiver is not a Record or no such key exists. This is the `record?key`
// shorthand from §4.7; TryFind is its option-returning counterpart.
func (v *Value) Prop(key string) (*Value, error) {
	if v.Kind() != KindRecord {
		return nil, &AccessError{Msg: fmt.Sprintf("Prop(%q): receiver is a %s, not a record", key, v.Kind())}
	}
	for _, p := range v.recVal {
		if p.Key == key {
			return p.Value, nil
		}
	}
	return nil, &AccessError{Msg: fmt.Sprintf("Prop(%q): no such key", key)}
}

// TryFind is Prop without the error: ok is false if the receiver is not a
// Record or the key is absent.
func (v *Value) TryFind(key string) (val *Value, ok bool) {
	if v.Kind() != KindRecord {
		return nil, false
	}
	for _, p := range v.recVal {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Collect returns every value paired with key, in order, as an Array. A
// Record with no matching key yields an empty Array, not an error.
func (v *Value) Collect(key string) *Value {
	if v.Kind() != KindRecord {
		return Array()
	}
	var out []*Value
	for _, p := range v.recVal {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return Array(out...)
}

// AsBool casts v to its boolean payload.
func (v *Value) AsBool() (bool, error) {
	if v.Kind() != KindBool {
		return false, &AccessError{Msg: fmt.Sprintf("expected bool, got %s", v.Kind())}
	}
	return v.boolVal, nil
}

// AsNumber casts v to its numeric payload.
func (v *Value) AsNumber() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, &AccessError{Msg: fmt.Sprintf("expected number, got %s", v.Kind())}
	}
	return v.numVal, nil
}

// AsFloat is AsNumber under the §4.7 as_float name: the format has one
// numeric representation for both integers and floats.
func (v *Value) AsFloat() (float64, error) {
	return v.AsNumber()
}

// AsInt casts v to its numeric payload truncated to an int, the §4.7
// as_int cast. There is no separate integer variant in the value model
// (§3): a Number is a Number, so this just narrows AsNumber's result.
func (v *Value) AsInt() (int64, error) {
	n, err := v.AsNumber()
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// AsDate casts v to its date payload.
func (v *Value) AsDate() (stream.Date, error) {
	if v.Kind() != KindDate {
		return stream.Date{}, &AccessError{Msg: fmt.Sprintf("expected date, got %s", v.Kind())}
	}
	return v.dateVal, nil
}

// AsString casts v to its string payload.
func (v *Value) AsString() (string, error) {
	if v.Kind() != KindString {
		return "", &AccessError{Msg: fmt.Sprintf("expected string, got %s", v.Kind())}
	}
	return v.strVal, nil
}

// AsArray casts v to its element slice. The slice is shared with v; it
// must not be mutated.
func (v *Value) AsArray() ([]*Value, error) {
	if v.Kind() != KindArray {
		return nil, &AccessError{Msg: fmt.Sprintf("expected array, got %s", v.Kind())}
	}
	return v.arrVal, nil
}

// AsRecord casts v to its pair slice. The slice is shared with v; it must
// not be mutated.
func (v *Value) AsRecord() ([]Pair, error) {
	if v.Kind() != KindRecord {
		return nil, &AccessError{Msg: fmt.Sprintf("expected record, got %s", v.Kind())}
	}
	return v.recVal, nil
}

// Index returns the i'th array element, or an error if v is not an Array
// or i is out of range.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindArray {
		return nil, &AccessError{Msg: fmt.Sprintf("Index(%d): receiver is a %s, not an array", i, v.Kind())}
	}
	if i < 0 || i >= len(v.arrVal) {
		return nil, &AccessError{Msg: fmt.Sprintf("Index(%d): out of range (len %d)", i, len(v.arrVal))}
	}
	return v.arrVal[i], nil
}

// Len reports the element count of an Array or the pair count of a
// Record; any other kind reports 0.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.arrVal)
	case KindRecord:
		return len(v.recVal)
	default:
		return 0
	}
}

// Elements returns v's array elements for iteration, or nil if v is not
// an Array.
func (v *Value) Elements() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.arrVal
}

// PairsSeq returns v's record pairs for iteration, or nil if v is not a
// Record.
func (v *Value) PairsSeq() []Pair {
	if v.Kind() != KindRecord {
		return nil
	}
	return v.recVal
}

// FindOptional reports which keys appear in every given record (all) and
// which appear in at least one but not every given record (some). Records
// that are not a KindRecord contribute no keys.
func FindOptional(records ...*Value) (all []string, some []string) {
	counts := make(map[string]int)
	order := make([]string, 0)
	seen := make(map[string]bool)
	n := 0
	for _, r := range records {
		if r.Kind() != KindRecord {
			continue
		}
		n++
		present := make(map[string]bool)
		for _, p := range r.recVal {
			if present[p.Key] {
				continue
			}
			present[p.Key] = true
			counts[p.Key]++
			if !seen[p.Key] {
				seen[p.Key] = true
				order = append(order, p.Key)
			}
		}
	}
	for _, key := range order {
		if counts[key] == n {
			all = append(all, key)
		} else {
			some = append(some, key)
		}
	}
	return all, some
}
