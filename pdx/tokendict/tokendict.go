// Package tokendict loads the id-to-name dictionary the binary parser's
// lookup parameter needs. spec.md leaves the dictionary's format to the
// caller; this package supplies one obvious choice - a two-column text
// table - since every real consumer of the binary dialect has to get
// that mapping from somewhere.
package tokendict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Parse reads a token dictionary: one "<id>\t<name>" pair per line. IDs
// may be decimal or 0x-prefixed hex. Blank lines and lines starting with
// '#' are skipped. Whitespace around each column is trimmed.
func Parse(r io.Reader) (map[int16]string, error) {
	out := make(map[int16]string)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idField, nameField, ok := strings.Cut(line, "\t")
		if !ok {
			idField, nameField, ok = strings.Cut(line, " ")
		}
		if !ok {
			return nil, fmt.Errorf("tokendict: line %d: expected \"<id> <name>\", got %q", lineNo, line)
		}
		idField = strings.TrimSpace(idField)
		name := strings.TrimSpace(nameField)

		base := 10
		if strings.HasPrefix(idField, "0x") || strings.HasPrefix(idField, "0X") {
			idField = idField[2:]
			base = 16
		}
		n, err := strconv.ParseInt(idField, base, 32)
		if err != nil {
			return nil, fmt.Errorf("tokendict: line %d: bad id %q: %w", lineNo, idField, err)
		}
		if n < -0x8000 || n > 0xFFFF {
			return nil, fmt.Errorf("tokendict: line %d: id %d out of int16 range", lineNo, n)
		}
		out[int16(n)] = name
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads a token dictionary from a file.
func Load(path string) (map[int16]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Lazy returns a thunk that loads the dictionary at path the first time
// it's called and caches the result (or error) for subsequent calls.
// This matches pdx.Load's lookup parameter, which spec.md §4.5 requires
// to stay unforced until the binary parser is actually reached.
func Lazy(path string) func() map[int16]string {
	var (
		once   sync.Once
		loaded map[int16]string
		err    error
	)
	return func() map[int16]string {
		once.Do(func() {
			loaded, err = Load(path)
			if err != nil {
				// The lookup thunk's signature has no error return;
				// surface the failure as an empty dictionary so every
				// token id simply falls back to its decimal form
				// instead of panicking deep inside the binary parser.
				loaded = map[int16]string{}
			}
		})
		return loaded
	}
}
