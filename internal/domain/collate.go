package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldKey returns the case- and accent-insensitive comparison form of s.
// "Émile" and "emile" share a key.
func FoldKey(s string) string {
	// Transformers are stateful, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// NameOrder compares two agents for sibling ordering.
// It returns a negative number when a sorts before b, zero when they are equal.
type NameOrder func(a, b *Agent) int

// DefaultNameOrder orders by folded last name, then folded first name.
func DefaultNameOrder(a, b *Agent) int {
	if c := strings.Compare(a.lastKey, b.lastKey); c != 0 {
		return c
	}
	return strings.Compare(a.firstKey, b.firstKey)
}

// FirstNameOrder orders by folded first name, then folded last name.
func FirstNameOrder(a, b *Agent) int {
	if c := strings.Compare(a.firstKey, b.firstKey); c != 0 {
		return c
	}
	return strings.Compare(a.lastKey, b.lastKey)
}

// ParseNameOrder maps a config value to a comparator, defaulting to DefaultNameOrder.
func ParseNameOrder(s string) NameOrder {
	switch s {
	case "first_name", "firstname":
		return FirstNameOrder
	default:
		return DefaultNameOrder
	}
}
