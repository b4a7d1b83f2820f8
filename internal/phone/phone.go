// Package phone normalizes phone identifiers and implements the suffix
// matching used by sender-strategy routing.
package phone

import "strings"

// Normalize reduces a raw phone identifier to its digits. It is idempotent
// and returns an empty string for input with no digits.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether candidate and configured refer to the same number.
// Both sides are normalized first. A match is equality or either number
// ending with the other, which tolerates country-code prefixes that one
// platform includes and another omits. A short configured number can
// therefore match several longer candidates; callers resolve that by taking
// the first matching rule in registry order.
func Matches(candidate, configured string) bool {
	c := Normalize(candidate)
	cfg := Normalize(configured)
	if c == "" || cfg == "" {
		return false
	}
	return c == cfg || strings.HasSuffix(c, cfg) || strings.HasSuffix(cfg, c)
}
