package perms_test

import (
	"fmt"
	"testing"

	"chargectl/internal/perms"
)

func TestParseFoldsOctalDigits(t *testing.T) {
	cases := []struct {
		in   string
		want perms.Value
	}{
		{"777", 0o777},
		{"644", 0o644},
		{"0", 0},
		{"7", 7},
		{"60", 0o60},
		{"  640  ", 0o640},
	}
	for _, tc := range cases {
		got, err := perms.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %o, want %o", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsNonOctalRunes(t *testing.T) {
	for _, in := range []string{"778", "abc", "7 7", "0x1", "64!", "６４４"} {
		if _, err := perms.Parse(in); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestRenderRoundTrip(t *testing.T) {
	for v := 0; v <= 0o777; v++ {
		rendered := perms.Value(v).String()
		if len(rendered) != 3 {
			t.Fatalf("Value(%o).String() = %q, want three digits", v, rendered)
		}
		parsed, err := perms.Parse(rendered)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", rendered, err)
		}
		if parsed != perms.Value(v) {
			t.Fatalf("round trip of %o yielded %o", v, parsed)
		}
	}
}

func TestRenderZeroPads(t *testing.T) {
	if got := perms.Value(0o7).String(); got != "007" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if got := fmt.Sprint(perms.Value(0o640)); got != "640" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}
