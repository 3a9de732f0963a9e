package pdx

import "fmt"

// ParseError is returned by the text parser, and by the binary parser for
// a truncated stream or an undecodable string. It always carries the byte
// offset at which parsing failed.
type ParseError struct {
	Msg string
	Pos int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pdx: %s at byte %d", e.Msg, e.Pos)
}

// UnexpectedTokenError is returned by the binary parser when an opcode is
// disallowed in the current parse state.
type UnexpectedTokenError struct {
	Kind string
	Pos  int64
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("pdx: unexpected token %s at byte %d", e.Kind, e.Pos)
}

// MissingEqualsError is returned by either parser when a key is not
// followed by '='.
type MissingEqualsError struct {
	Pos int64
}

func (e *MissingEqualsError) Error() string {
	return fmt.Sprintf("pdx: missing '=' at byte %d", e.Pos)
}

// MissingIdentifierError is returned by either parser when a key was
// expected but not found.
type MissingIdentifierError struct {
	Pos int64
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("pdx: missing identifier at byte %d", e.Pos)
}

// InvalidHeaderError is returned by the loader when the sniffed header
// matches neither the expected binary nor text header, and the input is
// not a ZIP container.
type InvalidHeaderError struct {
	Got string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("pdx: unrecognized header %q", e.Got)
}

// ZipLayoutError is returned by the loader when a ZIP container does not
// hold exactly one entry with a non-empty extension.
type ZipLayoutError struct {
	Reason string
}

func (e *ZipLayoutError) Error() string {
	return fmt.Sprintf("pdx: zip layout: %s", e.Reason)
}

// SerializeError is returned by Save when the root value is not a Record.
type SerializeError struct {
	Kind Kind
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("pdx: cannot serialize a top-level %s, only record", e.Kind)
}

// AccessError is returned by accessors when a value is missing or of the
// wrong kind.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("pdx: %s", e.Msg)
}
