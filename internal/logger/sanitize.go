package logger

import (
	"strings"
	"unicode"
)

// Length caps applied before user or provider text reaches the logs
const (
	MaxPathLength          = 500
	MaxHabitNameLength     = 200
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength caps full prompt and response bodies in debug mode
	MaxDebugContentLength = 10000
)

const truncationSuffix = "..."

// SanitizePath cleans a URL path for logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeHabitName cleans a user supplied habit name for logging
func SanitizeHabitName(name string) string {
	return SanitizeString(name, MaxHabitNameLength)
}

// SanitizeError cleans an error message for logging. nil yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeString drops invalid UTF-8 and non-printable runes (tab, newline and CR survive)
// and cuts the result to maxLength bytes on a rune boundary. maxLength <= 0 means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == unicode.ReplacementChar:
			return -1
		case r == '\t', r == '\n', r == '\r':
			return r
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, strings.ToValidUTF8(s, ""))

	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationSuffix
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
