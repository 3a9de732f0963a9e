// Package stream implements the low-level byte primitives shared by the
// Clausewitz text and binary parsers: a one-byte-lookahead reader over an
// arbitrary io.Reader, and allocation-free decoders for the handful of
// scalar encodings the format uses (fixed-digit decimal numbers, dotted
// dates, and the two fixed-point float representations found in the
// binary form).
//
// Nothing in this package knows about objects, arrays, or tokens - it only
// turns byte slices into numbers, dates, and lookahead decisions. The
// higher-level parsers in package pdx own the grammar.
package stream
