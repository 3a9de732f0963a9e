// Package pdx implements a parser, in-memory value model, and serializer
// for the Clausewitz engine's configuration and savegame format (the text
// and binary dialects used by EU4, CK2, HoI, and sibling Paradox titles).
//
// # Data model
//
// Every parse produces a tree of *Value, a tagged union over bool,
// number, date, string, hsv/rgb colour tuples, arrays, and records. A
// Record is an ordered multimap: key order is preserved and duplicate
// keys are kept verbatim, because the format leans on repetition
// (multiple army={...} blocks) rather than arrays for many aggregates.
//
// # Parsing
//
//	v, err := pdx.ParseText(r)           // plain-text dialect
//	v, err := pdx.ParseString(s)
//	v, err := pdx.LoadBinary(r, lookup, nil) // tagged binary dialect
//	v, err := pdx.Load(path, binHeader, txtHeader, lookup)
//
// Load sniffs the input (ZIP container, binary header, or text header)
// and dispatches to the matching parser. Text and binary both produce the
// same Value tree, so accessors and the serializer are dialect-agnostic.
//
// # Round-tripping
//
// Save writes a top-level Record back out in the text dialect. Only a
// Record round-trips; any other top-level Value is a Serialize error.
package pdx
