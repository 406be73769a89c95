package utils

import (
	"strings"
	"unicode"
)

// MaxLogStringLength defines the maximum length for user-provided strings in logs
const MaxLogStringLength = 200

// SanitizeLogString prepares a user-controlled value (a reservation id from a
// URL, a request path) for a log field: control characters become spaces,
// invisible format runes are dropped and long input is truncated
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	runes := []rune(input)
	truncated := false
	if len(runes) > MaxLogStringLength {
		runes = runes[:MaxLogStringLength]
		truncated = true
	}

	input = strings.ReplaceAll(string(runes), "\r\n", "\n")

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return ' '
		case unicode.Is(unicode.Cf, r):
			// zero-width and bidi overrides
			return -1
		}
		return r
	}, input)

	if truncated {
		sanitized += "... (truncated)"
	}
	return sanitized
}
