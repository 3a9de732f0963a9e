package pdx

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/Neumenon/clausewitz/stream"
)

// decodeWin1252 converts raw format bytes to a Go string under invariant
// 6. Go strings are plain byte sequences, so the round trip through
// readBareToken's string(scratch) loses nothing; this is the one place
// those bytes get interpreted as text.
func decodeWin1252(b []byte) string {
	s, err := charmap.Windows1252.NewDecoder().String(string(b))
	if err != nil {
		return string(b)
	}
	return s
}

const eof = -1

// textParser holds the state threaded through one top-level text parse:
// a reusable scratch buffer for the bare token currently being read, and
// two caches keyed by the token's own bytes (used as a Go map key, which
// already gives us the hash-indexed lookup the format's original
// implementation gets from a manual 64-bit hash - collisions are a
// non-issue either way). Both caches exist purely to cut allocations for
// repeated tokens (a savegame reuses "yes", province ids, and dates by
// the hundreds of thousands) and are dropped with the parser.
type textParser struct {
	cur *stream.PeekingReader

	scratch []byte

	keyCache    map[string]string
	narrowCache map[string]*Value
}

func newTextParser(r io.Reader) *textParser {
	return &textParser{
		cur:         stream.NewPeekingReader(r),
		scratch:     make([]byte, 0, 256),
		keyCache:    make(map[string]string),
		narrowCache: make(map[string]*Value),
	}
}

// ParseText parses the plain-text Clausewitz dialect. It performs no
// header check: if the input carries a header line, parseTop's own
// lookahead discovers and skips it.
func ParseText(r io.Reader) (*Value, error) {
	p := newTextParser(r)
	return p.parseTop()
}

// ParseString parses text already in memory.
func ParseString(s string) (*Value, error) {
	return ParseText(strings.NewReader(s))
}

// parseTop implements §4.3's top-level algorithm: skip whitespace, read
// one bare token, then use the byte right after it to decide whether the
// file opens with a standalone header line (discarded entirely, pairs
// follow flat to EOF) or is headerless, in which case the token just
// read is itself the first pair's key.
func (p *textParser) parseTop() (*Value, error) {
	stream.SkipSpace(p.cur)
	if p.cur.Peek() == eof {
		return Record(), nil
	}
	tok := p.readBareToken()

	next := p.cur.Peek()
	var pairs []Pair
	var err error
	if next == stream.CR || next == stream.LF {
		// tok was a standalone header line; discard it and read pairs flat.
		pairs, err = p.parsePairsUntilEOF(nil)
	} else {
		stream.SkipSpace(p.cur)
		if p.cur.Read() != '=' {
			return nil, &MissingEqualsError{Pos: p.cur.Pos()}
		}
		stream.SkipSpace(p.cur)
		val, verr := p.parseValue()
		if verr != nil {
			return nil, verr
		}
		stream.SkipSpace(p.cur)
		pairs, err = p.parsePairsUntilEOF([]Pair{{Key: p.internKey(tok), Value: val}})
	}
	if err != nil {
		return nil, err
	}
	return Record(pairs...), nil
}

// parsePairsUntilEOF reads (key=value) pairs, tolerating stray empty {}
// blocks, until the stream is exhausted.
func (p *textParser) parsePairsUntilEOF(pairs []Pair) ([]Pair, error) {
	for {
		stream.SkipSpace(p.cur)
		if p.cur.Peek() == eof {
			return pairs, nil
		}
		if p.cur.Peek() == '{' {
			p.cur.Read()
			if err := p.skipStrayBlock(); err != nil {
				return nil, err
			}
			continue
		}
		pair, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
}

// parsePair reads key=value, skipping the usual leading/trailing
// whitespace.
func (p *textParser) parsePair() (Pair, error) {
	stream.SkipSpace(p.cur)
	tok := p.readBareToken()
	if tok == "" {
		return Pair{}, &MissingIdentifierError{Pos: p.cur.Pos()}
	}
	key := p.internKey(tok)
	stream.SkipSpace(p.cur)
	if p.cur.Read() != '=' {
		return Pair{}, &MissingEqualsError{Pos: p.cur.Pos()}
	}
	stream.SkipSpace(p.cur)
	val, err := p.parseValue()
	if err != nil {
		return Pair{}, err
	}
	stream.SkipSpace(p.cur)
	return Pair{Key: key, Value: val}, nil
}

// parseValue implements §4.3's parse_value.
func (p *textParser) parseValue() (*Value, error) {
	switch p.cur.Peek() {
	case '"':
		return p.parseQuotedString()
	case '{':
		p.cur.Read()
		v, err := p.parseContainer()
		if err != nil {
			return nil, err
		}
		if p.cur.Read() != '}' {
			return nil, &ParseError{Msg: "unterminated container", Pos: p.cur.Pos()}
		}
		return v, nil
	default:
		tok := p.readBareToken()
		return p.narrow(tok)
	}
}

// narrow implements §4.3's narrow: hsv/rgb tags consume a following
// triple, everything else classifies by priority bool < number < date <
// string.
func (p *textParser) narrow(tok string) (*Value, error) {
	switch tok {
	case "hsv":
		return p.parseTriple(true)
	case "rgb":
		return p.parseTriple(false)
	}
	if v, ok := p.narrowCache[tok]; ok {
		return v, nil
	}
	v := p.narrowScalar(tok)
	p.narrowCache[tok] = v
	return v, nil
}

func (p *textParser) narrowScalar(tok string) *Value {
	switch tok {
	case "yes":
		return Bool(true)
	case "no":
		return Bool(false)
	}
	if n, ok := stream.ParseNumber([]byte(tok), len(tok)); ok {
		return Number(n)
	}
	if d, ok := stream.ParseDate([]byte(tok), len(tok)); ok {
		return DateValue(d)
	}
	return String(decodeWin1252([]byte(tok)))
}

// parseTriple reads "{ a b c }" after an hsv/rgb tag. hsv keeps three
// doubles; rgb truncates each to a byte. §4.3 names parse_number
// separately from the "array of three numbers" step here, and the
// corpus's hsv/rgb components are written with an ordinary decimal
// fraction (`0.5`, not `0.500`) rather than the savegame number
// grammar's fixed 3-or-5-digit fraction, so this reads each component
// with plain strconv.ParseFloat instead of stream.ParseNumber.
func (p *textParser) parseTriple(hsv bool) (*Value, error) {
	stream.SkipSpace(p.cur)
	if p.cur.Read() != '{' {
		return nil, &ParseError{Msg: "expected '{' after hsv/rgb tag", Pos: p.cur.Pos()}
	}
	var nums [3]float64
	for i := 0; i < 3; i++ {
		stream.SkipSpace(p.cur)
		tok := p.readBareToken()
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &ParseError{Msg: "expected number in hsv/rgb tuple", Pos: p.cur.Pos()}
		}
		nums[i] = n
	}
	stream.SkipSpace(p.cur)
	if p.cur.Read() != '}' {
		return nil, &ParseError{Msg: "expected '}' closing hsv/rgb tuple", Pos: p.cur.Pos()}
	}
	if hsv {
		return Hsv(nums[0], nums[1], nums[2]), nil
	}
	return Rgb(byte(nums[0]), byte(nums[1]), byte(nums[2])), nil
}

// parseQuotedString implements §4.3's quoted-string rule: contents that
// parse as a date become a Date, everything else stays a String. Quoted
// tokens never yield bools or numbers.
func (p *textParser) parseQuotedString() (*Value, error) {
	if p.cur.Read() != '"' {
		return nil, &ParseError{Msg: "expected opening quote", Pos: p.cur.Pos()}
	}
	var buf []byte
	for {
		b := p.cur.Peek()
		if b == eof {
			return nil, &ParseError{Msg: "unterminated quoted string", Pos: p.cur.Pos()}
		}
		if b == '"' {
			break
		}
		buf = append(buf, byte(p.cur.Read()))
	}
	p.cur.Read() // closing quote
	if d, ok := stream.ParseDate(buf, len(buf)); ok {
		return DateValue(d), nil
	}
	return String(decodeWin1252(buf)), nil
}

// parseContainer implements §4.3's parse_container. It is entered right
// after the leading '{' has been consumed and returns without consuming
// the closing '}' - the caller (parseValue) does that.
func (p *textParser) parseContainer() (*Value, error) {
	stream.SkipSpace(p.cur)

	switch p.cur.Peek() {
	case '}':
		return Record(), nil

	case '"':
		var elems []*Value
		for {
			stream.SkipSpace(p.cur)
			if p.cur.Peek() == '}' {
				break
			}
			v, err := p.parseQuotedString()
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return Array(elems...), nil

	case '{':
		return p.parseNestedFirstElement()

	default:
		tok := p.readBareToken()
		stream.SkipSpace(p.cur)
		switch p.cur.Peek() {
		case '}':
			v, err := p.narrow(tok)
			if err != nil {
				return nil, err
			}
			return Array(v), nil
		case '=':
			p.cur.Read()
			stream.SkipSpace(p.cur)
			val, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			pairs, err := p.parseObject([]Pair{{Key: p.internKey(tok), Value: val}})
			if err != nil {
				return nil, err
			}
			return Record(pairs...), nil
		default:
			first, err := p.narrow(tok)
			if err != nil {
				return nil, err
			}
			elems, err := p.readArrayElements([]*Value{first})
			if err != nil {
				return nil, err
			}
			return Array(elems...), nil
		}
	}
}

// parseNestedFirstElement handles the "{{" lookahead case: the container
// opens with a nested '{', and one more byte of lookahead decides whether
// that nested block is an empty record, a keyed record, or a nested
// array - in all three cases the overall value is an array whose first
// element is what we just parsed.
func (p *textParser) parseNestedFirstElement() (*Value, error) {
	p.cur.Read() // consume the inner '{'
	stream.SkipSpace(p.cur)

	var first *Value
	switch p.cur.Peek() {
	case '}':
		p.cur.Read()
		first = Record()

	default:
		tok := p.readBareToken()
		stream.SkipSpace(p.cur)
		switch p.cur.Peek() {
		case '=':
			p.cur.Read()
			stream.SkipSpace(p.cur)
			val, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			pairs, err := p.parseObject([]Pair{{Key: p.internKey(tok), Value: val}})
			if err != nil {
				return nil, err
			}
			if p.cur.Read() != '}' {
				return nil, &ParseError{Msg: "unterminated nested record", Pos: p.cur.Pos()}
			}
			first = Record(pairs...)
		default:
			v, err := p.narrow(tok)
			if err != nil {
				return nil, err
			}
			elems, err := p.readArrayElements([]*Value{v})
			if err != nil {
				return nil, err
			}
			if p.cur.Read() != '}' {
				return nil, &ParseError{Msg: "unterminated nested array", Pos: p.cur.Pos()}
			}
			first = Array(elems...)
		}
	}

	rest, err := p.readArrayElements([]*Value{first})
	if err != nil {
		return nil, err
	}
	return Array(rest...), nil
}

// readArrayElements reads further array elements (via parseValue) until
// '}' is peeked, without consuming it.
func (p *textParser) readArrayElements(elems []*Value) ([]*Value, error) {
	for {
		stream.SkipSpace(p.cur)
		if p.cur.Peek() == '}' {
			return elems, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}

// parseObject implements §4.3's parse_object: the first key is already
// known (and its value already appended to pairs); read further pairs,
// tolerating stray empty {} blocks, until '}' is peeked (not consumed).
func (p *textParser) parseObject(pairs []Pair) ([]Pair, error) {
	for {
		stream.SkipSpace(p.cur)
		if p.cur.Peek() == '}' {
			return pairs, nil
		}
		if p.cur.Peek() == '{' {
			p.cur.Read()
			if err := p.skipStrayBlock(); err != nil {
				return nil, err
			}
			continue
		}
		pair, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
}

// skipStrayBlock is entered right after consuming a '{' that turned out
// to be a stray, keyless placeholder block; it discards bytes through
// the matching '}', tolerating further nesting.
func (p *textParser) skipStrayBlock() error {
	depth := 1
	for depth > 0 {
		b := p.cur.Read()
		if b == eof {
			return &ParseError{Msg: "unterminated stray block", Pos: p.cur.Pos()}
		}
		switch b {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return nil
}

// readBareToken implements the bare-token boundary rule: stop at
// whitespace, '}', EOF, or (only once the token is non-empty) '='. The
// empty-token exception is what lets a literal "=" exist as a key when
// the token so far is empty (see bar=a ==b in §8).
func (p *textParser) readBareToken() string {
	p.scratch = p.scratch[:0]
	for {
		b := p.cur.Peek()
		if b == eof || stream.IsSpace(b) || b == '}' {
			break
		}
		if b == '=' && len(p.scratch) > 0 {
			break
		}
		p.cur.Read()
		p.scratch = append(p.scratch, byte(b))
	}
	return string(p.scratch)
}

// internKey dedupes key strings so repeated keys (army, province, ...)
// share one backing string across a parse.
func (p *textParser) internKey(s string) string {
	if cached, ok := p.keyCache[s]; ok {
		return cached
	}
	decoded := decodeWin1252([]byte(s))
	p.keyCache[s] = decoded
	return decoded
}
