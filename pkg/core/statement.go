package core

import "strings"

// TrimTerminators trims surrounding whitespace and any trailing statement terminators.
func TrimTerminators(statement string) string {
	trimmed := strings.TrimSpace(statement)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

// LeadingKeyword returns the upper-cased first keyword of a statement,
// skipping whitespace, line and block comments, and opening parentheses.
func LeadingKeyword(statement string) string {
	s := statement
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = s[idx+1:]
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s[2:], "*/")
			if idx < 0 {
				return ""
			}
			s = s[idx+4:]
		default:
			end := 0
			for end < len(s) && isWordByte(s[end]) {
				end++
			}
			return strings.ToUpper(s[:end])
		}
	}
}

// IsRowReturning reports whether a statement is classified as a read-only
// query (SELECT or WITH) rather than a mutating statement.
func IsRowReturning(statement string) bool {
	switch LeadingKeyword(statement) {
	case "SELECT", "WITH":
		return true
	default:
		return false
	}
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
