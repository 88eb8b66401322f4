// Package phone normalizes Bangladeshi mobile numbers into the canonical
// local form used as the cache and lookup key everywhere else.
//
// Canonical form is 11 digits starting with 01 and an operator digit in
// 3..9, e.g. "01712345678". Input may carry the 880 country prefix, a
// plus sign, spaces, dashes, or Bengali digits; all of that folds away
// deterministically, so normalizing an already normalized number is a
// no-op.
package phone

import (
	"regexp"
	"strings"
)

// Number is a normalized Bangladeshi mobile number in local 01x form
type Number string

// String returns the canonical digits
func (n Number) String() string { return string(n) }

var localPattern = regexp.MustCompile(`^01[3-9][0-9]{8}$`)

// bengaliDigits maps Bengali numerals onto ASCII
var bengaliDigits = strings.NewReplacer(
	"০", "0", "১", "1", "২", "2", "৩", "3", "৪", "4",
	"৫", "5", "৬", "6", "৭", "7", "৮", "8", "৯", "9",
)

// Normalize folds raw input into canonical local form.
// ok is false when the digits do not form a valid BD mobile number;
// the returned Number is empty in that case
func Normalize(raw string) (Number, bool) {
	s := bengaliDigits.Replace(raw)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// country-prefixed form: 8801XXXXXXXXX
	if len(digits) == 13 && strings.HasPrefix(digits, "880") {
		digits = "0" + digits[3:]
	}

	if !localPattern.MatchString(digits) {
		return "", false
	}
	return Number(digits), true
}

// Valid reports whether raw normalizes to a BD mobile number
func Valid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}
