package utils

import "strings"

// NormalizePhone reduces a free-text phone number to a dialable +digits
// form. Russian numbers written with a leading 8 are rewritten to +7.
// Returns "" when the input holds too few digits to dial.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	if len(n) < 10 {
		return ""
	}
	if len(n) == 11 && n[0] == '8' {
		n = "7" + n[1:]
	}
	return "+" + n
}
