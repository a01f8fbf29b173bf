package codegen

import (
	"strings"
	"unicode"
)

// MangleName maps an identifier to target-safe characters: whitespace and
// ':' are dropped (so a fully qualified "::m" mangles the same as "m"),
// every other non-alphanumeric becomes '_'. The result contains only
// [A-Za-z0-9_] and running it twice changes nothing.
func MangleName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ':', unicode.IsSpace(r):
			// dropped
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
