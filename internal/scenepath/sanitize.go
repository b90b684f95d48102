package scenepath

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IsValidIdentifier reports whether s is a non-empty identifier made of
// ASCII letters, digits and underscores, not starting with a digit.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Sanitize turns an arbitrary host name into a valid identifier.
//
// The name is NFC-normalized first so that canonically equivalent host
// names map to the same token, then every rune outside [A-Za-z0-9_] is
// replaced with '_'. A leading digit is prefixed with '_'.
func Sanitize(name string) string {
	if IsValidIdentifier(name) {
		return name
	}
	name = norm.NFC.String(name)
	if name == "" {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
