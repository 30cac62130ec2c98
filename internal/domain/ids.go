package domain

import "strings"

// CanonicalID trims an identifier and removes the ".0" suffix spreadsheets
// add when a numeric id was stored as a float ("12345.0" -> "12345").
func CanonicalID(s string) string {
	s = strings.TrimSpace(s)
	if dot := strings.IndexByte(s, '.'); dot > 0 {
		head, tail := s[:dot], s[dot+1:]
		if allDigits(head) && tail != "" && strings.Trim(tail, "0") == "" {
			return head
		}
	}
	return s
}

// IDKey is the comparison key for identifiers: canonical and case-folded.
func IDKey(s string) string {
	return strings.ToUpper(CanonicalID(s))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
