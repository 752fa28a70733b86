// Package perms parses and renders the octal permission strings used for the
// command pipe. Values are held as the plain integer mode bits so they can be
// compared directly against the low nine bits of an observed file mode.
package perms

import (
	"fmt"
	"strings"
)

// Value holds permission bits parsed from an octal string.
type Value uint32

// Parse folds an octal string into a Value. Surrounding whitespace is
// ignored; any non-octal rune is an error.
func Parse(text string) (Value, error) {
	var sum Value
	for _, r := range strings.TrimSpace(text) {
		if r < '0' || r > '7' {
			return 0, fmt.Errorf("parse permissions %q: %q is not an octal digit", text, r)
		}
		sum = sum<<3 + Value(r-'0')
	}
	return sum, nil
}

// String renders the value as a zero-padded three-digit octal string.
func (v Value) String() string {
	return fmt.Sprintf("%03o", uint32(v))
}

// Bits returns the raw mode bits.
func (v Value) Bits() uint32 {
	return uint32(v)
}
