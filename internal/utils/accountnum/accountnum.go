// Package accountnum normalizes phone-derived wallet account numbers.
//
// Account numbers are derived from the owner's phone number and must be
// written in exactly one canonical form so lookups never need to guess the
// representation. Historical data predating this rule may still carry raw
// forms; the one place that tolerates those is the repository's compat
// lookup, which consumes Normalize first and the raw input second.
package accountnum

import "strings"

// Normalize returns the canonical form of a phone-derived account number:
// digits only, with the international "00" dialing prefix removed. A "+"
// prefix is dropped along with every other non-digit character.
//
// Normalize("+251 91-234-5678") == "251912345678"
// Normalize("00251912345678")   == "251912345678"
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "00") && len(digits) > 2 {
		digits = digits[2:]
	}
	return digits
}

// IsNormalized reports whether s is already in canonical form.
func IsNormalized(s string) bool {
	return s != "" && s == Normalize(s)
}
