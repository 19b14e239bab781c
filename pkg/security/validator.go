package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length for search queries
	MaxSearchQueryLength = 100
)

var (
	// ErrSearchQueryTooLong is returned when the query exceeds MaxSearchQueryLength runes
	ErrSearchQueryTooLong = errors.New("search query too long")
	// ErrSearchQueryInvalid is returned when the query contains characters outside the search alphabet
	ErrSearchQueryInvalid = errors.New("search query contains invalid characters")
)

// ValidateSearchQuery trims a name search query and rejects characters outside
// the search alphabet. Stores match the result literally, so words such as
// "Update" or "Drop" are ordinary text.
func ValidateSearchQuery(query string) (string, error) {
	if query == "" {
		return "", nil
	}

	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrSearchQueryTooLong
	}

	query = strings.TrimSpace(query)

	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", ErrSearchQueryInvalid
		}
	}

	return query, nil
}

// isValidSearchChar checks if a character is safe for search queries
func isValidSearchChar(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsNumber(char) ||
		char == ' ' || char == '-' || char == '_' || char == '.' ||
		char == '@' || char == '+'
}

// SanitizeSearchString escapes LIKE wildcards so the query matches literally.
// The result is meant for a LIKE clause with ESCAPE '\'.
func SanitizeSearchString(query string) string {
	if query == "" {
		return ""
	}

	query = strings.ReplaceAll(query, `\`, `\\`)
	query = strings.ReplaceAll(query, "%", `\%`)
	query = strings.ReplaceAll(query, "_", `\_`)

	return query
}

// LiteralPattern quotes every regular expression metacharacter so the query
// can be used as a literal $regex operand.
func LiteralPattern(query string) string {
	return regexp.QuoteMeta(query)
}
