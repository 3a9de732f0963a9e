package pdx

import (
	"bytes"
	"testing"

	"github.com/Neumenon/clausewitz/stream"
)

// S4: binary bytes `4d 28 01 00 0c 00 10 77 5d 03` with id 0x284d->"date"
// -> Record[("date",Date(1444,11,11))]
func TestLoadBinary_S4_HiddenDate(t *testing.T) {
	data := []byte{0x4d, 0x28, 0x01, 0x00, 0x0c, 0x00, 0x10, 0x77, 0x5d, 0x03}
	lookup := map[int16]string{0x284d: "date"}

	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	pairs, err := v.AsRecord()
	if err != nil {
		t.Fatalf("AsRecord: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "date" {
		t.Fatalf("pairs = %+v", pairs)
	}
	d, err := pairs[0].Value.AsDate()
	if err != nil {
		t.Fatalf("AsDate: %v", err)
	}
	want := stream.Date{Year: 1444, Month: 11, Day: 11, Hour: 0, HasHour: true}
	if d != want {
		t.Fatalf("got %+v, want %+v", d, want)
	}
}

// S5: binary bytes `dd dd 01 00 03 00 04 00` with id 0xdddd->"foo"
// -> Record[("foo",Record[])]
func TestLoadBinary_S5_EmptyGroup(t *testing.T) {
	data := []byte{0xdd, 0xdd, 0x01, 0x00, 0x03, 0x00, 0x04, 0x00}
	lookup := map[int16]string{-0x2223: "foo"} // 0xdddd as int16 is -8739

	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	pairs, err := v.AsRecord()
	if err != nil {
		t.Fatalf("AsRecord: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "foo" {
		t.Fatalf("pairs = %+v", pairs)
	}
	if pairs[0].Value.Kind() != KindRecord || pairs[0].Value.Len() != 0 {
		t.Fatalf("value = %+v, want empty record", pairs[0].Value)
	}
}

// Unresolved token ids fall back to their own decimal string.
func TestLoadBinary_UnresolvedTokenFallsBackToDecimal(t *testing.T) {
	// token 0x0100 (=256) = equals = value(int32 7), no lookup entry.
	data := []byte{0x00, 0x01, 0x01, 0x00, 0x0c, 0x00, 0x07, 0x00, 0x00, 0x00}
	v, err := LoadBinary(bytes.NewReader(data), nil, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	pairs, err := v.AsRecord()
	if err != nil {
		t.Fatalf("AsRecord: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "256" {
		t.Fatalf("pairs = %+v, want key \"256\"", pairs)
	}
}

// Property 2: the synthetic 0x284B/0x284C boolean opcodes carry no payload.
func TestLoadBinary_SyntheticBooleans(t *testing.T) {
	// token(0xAAAA)=equals=true(0x284B), token(0xBBBB)=equals=false(0x284C)
	data := []byte{
		0xAA, 0xAA, 0x01, 0x00, 0x4B, 0x28,
		0xBB, 0xBB, 0x01, 0x00, 0x4C, 0x28,
	}
	lookup := map[int16]string{int16(-21846): "t", int16(-17477): "f"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	tv, ok := v.TryFind("t")
	if !ok {
		t.Fatal("missing key t")
	}
	b, err := tv.AsBool()
	if err != nil || !b {
		t.Fatalf("t = %v, %v, want true", b, err)
	}
	fv, ok := v.TryFind("f")
	if !ok {
		t.Fatal("missing key f")
	}
	b, err = fv.AsBool()
	if err != nil || b {
		t.Fatalf("f = %v, %v, want false", b, err)
	}
}

// Byte-encoded boolean, opcode 0x000E.
func TestLoadBinary_ByteBool(t *testing.T) {
	data := []byte{0xAA, 0xAA, 0x01, 0x00, 0x0E, 0x00, 0x01}
	lookup := map[int16]string{int16(-21846): "b"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	bv, ok := v.TryFind("b")
	if !ok {
		t.Fatal("missing key b")
	}
	b, err := bv.AsBool()
	if err != nil || !b {
		t.Fatalf("b = %v, %v, want true", b, err)
	}
}

// Property 4: Q16.16 float decoding through the full binary pipeline.
func TestLoadBinary_QuantizedFloat(t *testing.T) {
	// token(0xAAAA)=equals=float(0x0167) payload: 00 40 08 00 + 4 unused bytes
	data := []byte{
		0xAA, 0xAA, 0x01, 0x00, 0x67, 0x01,
		0x00, 0x40, 0x08, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	lookup := map[int16]string{int16(-21846): "n"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	nv, ok := v.TryFind("n")
	if !ok {
		t.Fatal("missing key n")
	}
	n, err := nv.AsNumber()
	if err != nil {
		t.Fatalf("AsNumber: %v", err)
	}
	if n != 16.5 {
		t.Fatalf("n = %v, want 16.5", n)
	}
}

// String values, opcode 0x000F/0x0017.
func TestLoadBinary_String(t *testing.T) {
	// token(0xAAAA)=equals=string(0x000F) len=3 "abc"
	data := []byte{0xAA, 0xAA, 0x01, 0x00, 0x0F, 0x00, 0x03, 0x00, 'a', 'b', 'c'}
	lookup := map[int16]string{int16(-21846): "s"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	sv, ok := v.TryFind("s")
	if !ok {
		t.Fatal("missing key s")
	}
	s, err := sv.AsString()
	if err != nil || s != "abc" {
		t.Fatalf("s = %q, %v, want abc", s, err)
	}
}

// A group opening a scalar followed directly by EndGroup is an
// array-of-one, per parse_subgroup's "subber" dispatch.
func TestLoadBinary_ArrayOfOne(t *testing.T) {
	// token(0xAAAA)=equals={ int32(9) }
	data := []byte{
		0xAA, 0xAA, 0x01, 0x00, 0x03, 0x00,
		0x0C, 0x00, 0x09, 0x00, 0x00, 0x00,
		0x04, 0x00,
	}
	lookup := map[int16]string{int16(-21846): "arr"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	av, ok := v.TryFind("arr")
	if !ok {
		t.Fatal("missing key arr")
	}
	elems, err := av.AsArray()
	if err != nil {
		t.Fatalf("AsArray: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("len(elems) = %d, want 1", len(elems))
	}
	n, err := elems[0].AsNumber()
	if err != nil || n != 9 {
		t.Fatalf("elems[0] = %v, %v, want 9", n, err)
	}
}

// A multi-element array of scalars inside a group.
func TestLoadBinary_ScalarArray(t *testing.T) {
	// token(0xAAAA)=equals={ int32(1) int32(2) int32(3) }
	data := []byte{
		0xAA, 0xAA, 0x01, 0x00, 0x03, 0x00,
		0x0C, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x0C, 0x00, 0x02, 0x00, 0x00, 0x00,
		0x0C, 0x00, 0x03, 0x00, 0x00, 0x00,
		0x04, 0x00,
	}
	lookup := map[int16]string{int16(-21846): "arr"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	av, ok := v.TryFind("arr")
	if !ok {
		t.Fatal("missing key arr")
	}
	elems, err := av.AsArray()
	if err != nil {
		t.Fatalf("AsArray: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("len(elems) = %d, want 3", len(elems))
	}
}

// Uint32 payloads never masquerade as hidden dates, even in-range.
func TestLoadBinary_UintNeverHiddenDate(t *testing.T) {
	// token(0xAAAA)=equals=uint32(43_808_760) (in Int's hidden-date range)
	data := []byte{0xAA, 0xAA, 0x01, 0x00, 0x14, 0x00, 0xF8, 0x77, 0x9C, 0x02}
	lookup := map[int16]string{int16(-21846): "n"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	nv, ok := v.TryFind("n")
	if !ok {
		t.Fatal("missing key n")
	}
	if nv.Kind() != KindNumber {
		t.Fatalf("Kind() = %v, want number (uint32 never hidden-dates)", nv.Kind())
	}
}

// A header mismatch is fatal.
func TestLoadBinary_HeaderMismatch(t *testing.T) {
	header := "BINv2"
	data := append([]byte("WRONG"), 0x00, 0x01)
	_, err := LoadBinary(bytes.NewReader(data), nil, &header)
	if err == nil {
		t.Fatal("expected header mismatch error")
	}
	if _, ok := err.(*InvalidHeaderError); !ok {
		t.Fatalf("err = %T, want *InvalidHeaderError", err)
	}
}

// A nested record-as-array-element, per parse_subgroup's OpenGroup case.
func TestLoadBinary_NestedRecordElement(t *testing.T) {
	// token(0xAAAA)=equals={ { token(0xBBBB)=equals=int32(1) } }
	data := []byte{
		0xAA, 0xAA, 0x01, 0x00, 0x03, 0x00,
		0x03, 0x00,
		0xBB, 0xBB, 0x01, 0x00, 0x0C, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x04, 0x00,
		0x04, 0x00,
	}
	lookup := map[int16]string{int16(-21846): "list", int16(-17477): "k"}
	v, err := LoadBinary(bytes.NewReader(data), lookup, nil)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	lv, ok := v.TryFind("list")
	if !ok {
		t.Fatal("missing key list")
	}
	elems, err := lv.AsArray()
	if err != nil {
		t.Fatalf("AsArray: %v", err)
	}
	if len(elems) != 1 || elems[0].Kind() != KindRecord {
		t.Fatalf("elems = %+v", elems)
	}
}

// An unexpected opcode where an identifier or equals was required errors
// with the byte position.
func TestLoadBinary_UnexpectedToken(t *testing.T) {
	// token(0xAAAA) not followed by Equals: EndGroup instead.
	data := []byte{0xAA, 0xAA, 0x04, 0x00}
	_, err := LoadBinary(bytes.NewReader(data), nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*MissingEqualsError); !ok {
		t.Fatalf("err = %T, want *MissingEqualsError", err)
	}
}
