package tokendict

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `# comment
0x284d	date
12345	owner

0X01	equals_like
`
	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := map[int16]string{
		0x284d: "date",
		12345:  "owner",
		0x01:   "equals_like",
	}
	if len(got) != len(want) {
		t.Fatalf("Parse() = %v entries, want %v", len(got), len(want))
	}
	for id, name := range want {
		if got[id] != name {
			t.Errorf("got[%#x] = %q, want %q", id, got[id], name)
		}
	}
}

func TestParseSpaceSeparated(t *testing.T) {
	got, err := Parse(strings.NewReader("100 province_id\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got[100] != "province_id" {
		t.Errorf("got[100] = %q, want %q", got[100], "province_id")
	}
}

func TestParseBadLine(t *testing.T) {
	if _, err := Parse(strings.NewReader("notanid\tfoo\n")); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}

func TestParseOutOfRange(t *testing.T) {
	if _, err := Parse(strings.NewReader("100000\tfoo\n")); err == nil {
		t.Fatal("expected an error for an id outside int16 range")
	}
}

func TestLazyCachesAndSwallowsLoadErrors(t *testing.T) {
	thunk := Lazy("/nonexistent/path/does-not-exist.tsv")
	got := thunk()
	if len(got) != 0 {
		t.Fatalf("Lazy() thunk on missing file = %v, want empty map", got)
	}
	// Second call must not panic or re-attempt the failed load.
	got2 := thunk()
	if len(got2) != 0 {
		t.Fatalf("second call = %v, want empty map", got2)
	}
}
