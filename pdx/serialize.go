package pdx

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Save implements §4.6's text serializer: only a top-level Record is
// serializable. Pairs are written key=value with no separator between
// them; each scalar value ends in a newline, containers do not.
func Save(w io.Writer, v *Value) error {
	if v.Kind() != KindRecord {
		return &SerializeError{Kind: v.Kind()}
	}
	bw := bufio.NewWriter(w)
	for _, p := range v.recVal {
		if err := writePair(bw, p); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writePair(w *bufio.Writer, p Pair) error {
	if _, err := w.WriteString(encodeWin1252(p.Key)); err != nil {
		return err
	}
	if err := w.WriteByte('='); err != nil {
		return err
	}
	return writeSerialized(w, p.Value)
}

func writeSerialized(w *bufio.Writer, v *Value) error {
	switch v.Kind() {
	case KindBool:
		if v.boolVal {
			_, _ = w.WriteString("yes\n")
		} else {
			_, _ = w.WriteString("no\n")
		}
	case KindNumber:
		fmt.Fprintf(w, "%.3f\n", v.numVal)
	case KindDate:
		d := v.dateVal
		if d.HasHour {
			fmt.Fprintf(w, "%d.%d.%d.%d\n", d.Year, d.Month, d.Day, d.Hour)
		} else {
			fmt.Fprintf(w, "%d.%d.%d\n", d.Year, d.Month, d.Day)
		}
	case KindString:
		w.WriteByte('"')
		_, _ = w.WriteString(encodeWin1252(v.strVal))
		_, _ = w.WriteString("\"\n")
	case KindHsv:
		fmt.Fprintf(w, "hsv { %v %v %v }\n", v.triple[0], v.triple[1], v.triple[2])
	case KindRgb:
		fmt.Fprintf(w, "rgb { %d %d %d }\n", v.rgbVal[0], v.rgbVal[1], v.rgbVal[2])
	case KindArray:
		w.WriteByte('{')
		for _, e := range v.arrVal {
			if err := writeSerialized(w, e); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	case KindRecord:
		w.WriteByte('{')
		for _, p := range v.recVal {
			if err := writePair(w, p); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	}
	return nil
}

// encodeWin1252 re-encodes s, which parsed out of Windows-1252 bytes (or
// was built at runtime), back to that code page for output. A character
// outside the code page's repertoire is left as-is rather than failing
// the whole serialize - the format has no escape syntax to fall back on.
func encodeWin1252(s string) string {
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return out
}
