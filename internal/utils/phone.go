package utils

import "strings"

// NormalizeMSISDN converts a local mobile number into international form for
// the given country calling code (without "+"):
//
//	0712345678    -> +254712345678
//	254712345678  -> +254712345678
//	+254712345678 -> unchanged
//
// Any other shape is rejected.
func NormalizeMSISDN(input, countryCode string) (string, bool) {
	input = strings.TrimSpace(input)
	digits := onlyDigits(input)
	if digits == "" {
		return "", false
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return "+" + countryCode + digits[1:], true
	case strings.HasPrefix(digits, countryCode):
		return "+" + digits, true
	case strings.HasPrefix(input, "+"):
		return input, true
	}
	return "", false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
