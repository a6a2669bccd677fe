package utils

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLength bounds the size of a search query in runes.
const MaxQueryLength = 60

// IsOnlyNumbers checks if a string consists only of digits
func IsOnlyNumbers(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ContainsControlChars reports whether s has non-printable runes such as
// escape sequences or NUL bytes.
func ContainsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// IsValidQuery checks a raw query before it is searched. Empty queries are
// valid and simply clear the results.
func IsValidQuery(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	if utf8.RuneCountInString(s) > MaxQueryLength {
		return false
	}
	return !ContainsControlChars(s)
}

// ParseIndex parses a 1-based list position typed by the user into a
// 0-based index. It fails for anything outside [1, n].
func ParseIndex(s string, n int) (int, bool) {
	if !IsOnlyNumbers(s) {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}
