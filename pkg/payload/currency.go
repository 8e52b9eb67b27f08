package payload

import (
	"regexp"
	"strings"
	"unicode"
)

var digitsOnly = regexp.MustCompile(`^\d*$`)

// FormatThousands inserts a space every three digits from the right:
// "15000" becomes "15 000". Input that is not a digit string after
// Unformat is returned unchanged.
func FormatThousands(raw string) string {
	digits := Unformat(raw)
	if digits == "" || !digitsOnly.MatchString(digits) {
		return raw
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Unformat removes every whitespace rune, including the non breaking spaces
// some locales use as thousand separators.
func Unformat(formatted string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, formatted)
}

// AcceptDigits reports whether a keystroke producing candidate may be
// applied to a currency input: the unformatted value must be digits only.
func AcceptDigits(candidate string) bool {
	return digitsOnly.MatchString(Unformat(candidate))
}
