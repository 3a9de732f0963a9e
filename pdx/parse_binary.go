package pdx

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"

	"golang.org/x/text/encoding/charmap"

	"github.com/Neumenon/clausewitz/stream"
)

// Binary opcodes. Anything not listed here is a token id: either a hit in
// the caller's dictionary or, failing that, its own decimal string.
const (
	opEquals     = 0x0001
	opOpenGroup  = 0x0003
	opEndGroup   = 0x0004
	opInt32      = 0x000C
	opFloatCut32 = 0x000D
	opBoolByte   = 0x000E
	opString1    = 0x000F
	opUint32     = 0x0014
	opString2    = 0x0017
	opFloatCut   = 0x0167
	opBoolTrue   = 0x284B
	opBoolFalse  = 0x284C
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkEquals
	tkOpenGroup
	tkEndGroup
	tkInt
	tkUint
	tkBool
	tkString
	tkFloat
	tkToken
)

func (k tokenKind) String() string {
	switch k {
	case tkEOF:
		return "eof"
	case tkEquals:
		return "equals"
	case tkOpenGroup:
		return "open-group"
	case tkEndGroup:
		return "end-group"
	case tkInt:
		return "int"
	case tkUint:
		return "uint"
	case tkBool:
		return "bool"
	case tkString:
		return "string"
	case tkFloat:
		return "float"
	case tkToken:
		return "token"
	default:
		return "unknown"
	}
}

// token is the binary parser's current-token slot: one kind tag plus
// whichever of the scalar payload fields applies. Unlike the teacher's
// enum-carries-its-payload token type, this mirrors the format's own
// "mutable payload slots" trick (§4.4) directly, since the grammar here
// really does dispatch on kind first and read a single payload field.
type token struct {
	kind tokenKind
	i32  int32
	u32  uint32
	b    bool
	s    string
	f    float64
}

// identifier reports the string an identifier-position token resolves to:
// strings and tokens use their text, ints and uints stringify to decimal.
func (t token) identifier() (string, bool) {
	switch t.kind {
	case tkString, tkToken:
		return t.s, true
	case tkInt:
		return strconv.FormatInt(int64(t.i32), 10), true
	case tkUint:
		return strconv.FormatUint(uint64(t.u32), 10), true
	default:
		return "", false
	}
}

// binaryParser reads a little-endian opcode+payload stream and resolves
// token ids through a caller-supplied dictionary.
type binaryParser struct {
	r      *bufio.Reader
	pos    int64
	lookup map[int16]string
}

// LoadBinary parses the tagged binary Clausewitz dialect. lookup maps
// opaque 16-bit token ids to names; an id absent from it renders as its
// own decimal string. If expectedHeader is non-nil, exactly that many
// bytes are read and compared first; a mismatch is fatal.
func LoadBinary(r io.Reader, lookup map[int16]string, expectedHeader *string) (*Value, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var pos int64
	if expectedHeader != nil {
		buf := make([]byte, len(*expectedHeader))
		n, err := io.ReadFull(br, buf)
		pos += int64(n)
		if err != nil {
			return nil, &InvalidHeaderError{Got: string(buf[:n])}
		}
		if string(buf) != *expectedHeader {
			return nil, &InvalidHeaderError{Got: string(buf)}
		}
	}
	p := &binaryParser{r: br, pos: pos, lookup: lookup}
	return p.parseTopObject()
}

func (p *binaryParser) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, &ParseError{Msg: "truncated binary stream", Pos: p.pos}
	}
	p.pos++
	return b, nil
}

func (p *binaryParser) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(p.r, buf)
	p.pos += int64(got)
	if err != nil {
		return nil, &ParseError{Msg: "truncated binary stream", Pos: p.pos}
	}
	return buf, nil
}

func (p *binaryParser) readU16() (uint16, bool, error) {
	var buf [2]byte
	n, err := io.ReadFull(p.r, buf[:])
	p.pos += int64(n)
	if err != nil {
		if err == io.EOF && n == 0 {
			return 0, true, nil
		}
		return 0, false, &ParseError{Msg: "truncated opcode", Pos: p.pos}
	}
	return binary.LittleEndian.Uint16(buf[:]), false, nil
}

func (p *binaryParser) readI32() (int32, error) {
	buf, err := p.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (p *binaryParser) readU32() (uint32, error) {
	buf, err := p.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (p *binaryParser) readString() (string, error) {
	lenBuf, err := p.readN(2)
	if err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint16(lenBuf))
	raw, err := p.readN(n)
	if err != nil {
		return "", err
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", &ParseError{Msg: "invalid windows-1252 string", Pos: p.pos}
	}
	return string(decoded), nil
}

func (p *binaryParser) resolve(id int16) string {
	if name, ok := p.lookup[id]; ok {
		return name
	}
	return strconv.FormatInt(int64(id), 10)
}

// next reads the next opcode and its payload, producing one token.
func (p *binaryParser) next() (token, error) {
	raw, atEOF, err := p.readU16()
	if err != nil {
		return token{}, err
	}
	if atEOF {
		return token{kind: tkEOF}, nil
	}
	switch raw {
	case opEquals:
		return token{kind: tkEquals}, nil
	case opOpenGroup:
		return token{kind: tkOpenGroup}, nil
	case opEndGroup:
		return token{kind: tkEndGroup}, nil
	case opInt32:
		n, err := p.readI32()
		if err != nil {
			return token{}, err
		}
		return token{kind: tkInt, i32: n}, nil
	case opFloatCut32:
		n, err := p.readI32()
		if err != nil {
			return token{}, err
		}
		return token{kind: tkFloat, f: stream.Cut32(n)}, nil
	case opBoolByte:
		b, err := p.readByte()
		if err != nil {
			return token{}, err
		}
		return token{kind: tkBool, b: b != 0}, nil
	case opString1, opString2:
		s, err := p.readString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tkString, s: s}, nil
	case opUint32:
		n, err := p.readU32()
		if err != nil {
			return token{}, err
		}
		return token{kind: tkUint, u32: n}, nil
	case opFloatCut:
		n, err := p.readI32()
		if err != nil {
			return token{}, err
		}
		if _, err := p.readN(4); err != nil { // four unused trailing bytes
			return token{}, err
		}
		return token{kind: tkFloat, f: stream.Cut(n)}, nil
	case opBoolTrue:
		return token{kind: tkBool, b: true}, nil
	case opBoolFalse:
		return token{kind: tkBool, b: false}, nil
	default:
		return token{kind: tkToken, s: p.resolve(int16(raw))}, nil
	}
}

// parseTopObject implements §4.4's parse_top_object: read pairs until the
// stream runs out, tolerating stray empty {} blocks between them.
func (p *binaryParser) parseTopObject() (*Value, error) {
	var pairs []Pair
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	for tok.kind != tkEOF {
		key, ok := tok.identifier()
		if !ok {
			return nil, &MissingIdentifierError{Pos: p.pos}
		}
		eq, err := p.next()
		if err != nil {
			return nil, err
		}
		if eq.kind != tkEquals {
			return nil, &MissingEqualsError{Pos: p.pos}
		}
		valTok, err := p.next()
		if err != nil {
			return nil, err
		}
		val, err := p.parseValue(valTok)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: val})

		tok, err = p.next()
		if err != nil {
			return nil, err
		}
		tok, err = p.skipEmptyObjects(tok)
		if err != nil {
			return nil, err
		}
	}
	return Record(pairs...), nil
}

// skipEmptyObjects implements §4.4's skip_empty_objects: while tok is an
// OpenGroup, the following token must be an EndGroup (a stray, keyless
// {} placeholder); swallow both and read past them.
func (p *binaryParser) skipEmptyObjects(tok token) (token, error) {
	for tok.kind == tkOpenGroup {
		inner, err := p.next()
		if err != nil {
			return token{}, err
		}
		if inner.kind != tkEndGroup {
			return token{}, &UnexpectedTokenError{Kind: inner.kind.String(), Pos: p.pos}
		}
		tok, err = p.next()
		if err != nil {
			return token{}, err
		}
	}
	return tok, nil
}

// parseValue implements §4.4's parse_value dispatch on an already-read
// token.
func (p *binaryParser) parseValue(tok token) (*Value, error) {
	switch tok.kind {
	case tkInt:
		if stream.InHiddenDateRange(tok.i32) {
			return DateValue(stream.DecodeHiddenDate(tok.i32)), nil
		}
		return Number(float64(tok.i32)), nil
	case tkUint:
		return Number(float64(tok.u32)), nil
	case tkBool:
		return Bool(tok.b), nil
	case tkString:
		return String(tok.s), nil
	case tkFloat:
		return Number(tok.f), nil
	case tkToken:
		return String(tok.s), nil
	case tkOpenGroup:
		return p.parseSubgroup()
	default:
		return nil, &UnexpectedTokenError{Kind: tok.kind.String(), Pos: p.pos}
	}
}

// parseSubgroup implements §4.4's parse_subgroup: invoked right after an
// OpenGroup has been consumed, it reads one more token of lookahead to
// decide whether the group is a record, an array, or empty.
func (p *binaryParser) parseSubgroup() (*Value, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tkInt, tkUint, tkString:
		second, err := p.next()
		if err != nil {
			return nil, err
		}
		switch second.kind {
		case tkEquals:
			key, ok := t.identifier()
			if !ok {
				return nil, &MissingIdentifierError{Pos: p.pos}
			}
			return p.parseObject(key)
		case tkEndGroup:
			v, err := p.parseValue(t)
			if err != nil {
				return nil, err
			}
			return Array(v), nil
		default:
			firstVal, err := p.parseValue(t)
			if err != nil {
				return nil, err
			}
			secondVal, err := p.parseValue(second)
			if err != nil {
				return nil, err
			}
			return p.parseArray([]*Value{firstVal, secondVal})
		}
	case tkFloat:
		firstVal, err := p.parseValue(t)
		if err != nil {
			return nil, err
		}
		next, err := p.next()
		if err != nil {
			return nil, err
		}
		if next.kind == tkEndGroup {
			return Array(firstVal), nil
		}
		secondVal, err := p.parseValue(next)
		if err != nil {
			return nil, err
		}
		return p.parseArray([]*Value{firstVal, secondVal})
	case tkOpenGroup:
		nested, err := p.parseSubgroup()
		if err != nil {
			return nil, err
		}
		return p.parseArray([]*Value{nested})
	case tkToken:
		eq, err := p.next()
		if err != nil {
			return nil, err
		}
		if eq.kind != tkEquals {
			return nil, &MissingEqualsError{Pos: p.pos}
		}
		return p.parseObject(t.s)
	case tkEndGroup:
		return Record(), nil
	default:
		return nil, &UnexpectedTokenError{Kind: t.kind.String(), Pos: p.pos}
	}
}

// parseObject implements §4.4's parse_object: entered with the first key
// already known and the stream just past its Equals.
func (p *binaryParser) parseObject(firstKey string) (*Value, error) {
	valTok, err := p.next()
	if err != nil {
		return nil, err
	}
	val, err := p.parseValue(valTok)
	if err != nil {
		return nil, err
	}
	pairs := []Pair{{Key: firstKey, Value: val}}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	for {
		tok, err = p.skipEmptyObjects(tok)
		if err != nil {
			return nil, err
		}
		if tok.kind == tkEndGroup {
			return Record(pairs...), nil
		}
		key, ok := tok.identifier()
		if !ok {
			return nil, &MissingIdentifierError{Pos: p.pos}
		}
		eq, err := p.next()
		if err != nil {
			return nil, err
		}
		if eq.kind != tkEquals {
			return nil, &MissingEqualsError{Pos: p.pos}
		}
		vt, err := p.next()
		if err != nil {
			return nil, err
		}
		v, err := p.parseValue(vt)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: v})

		tok, err = p.next()
		if err != nil {
			return nil, err
		}
	}
}

// parseArray implements §4.4's parse_array, seeded with whatever elements
// the caller already decoded via lookahead.
func (p *binaryParser) parseArray(elems []*Value) (*Value, error) {
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tkEndGroup {
			return Array(elems...), nil
		}
		v, err := p.parseValue(tok)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}
