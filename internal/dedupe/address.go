package dedupe

import "strings"

// minTokenLength is the shortest address token considered meaningful. Shorter
// fragments ("st", "at", "#") are too generic to narrow a candidate query.
const minTokenLength = 3

// ExactKey returns the trimmed address used for exact duplicate comparison.
// Comparison itself is case-insensitive (SameAddress); the key is kept as
// entered rather than lower-cased so locale case folding stays with
// strings.EqualFold.
func ExactKey(address string) string {
	return strings.TrimSpace(address)
}

// SameAddress reports whether two addresses are exact duplicates of each
// other: equal after trimming, ignoring case. Two blank addresses never
// match, since blank-address listings are exempt from matching.
func SameAddress(a, b string) bool {
	a = ExactKey(a)
	b = ExactKey(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// Tokens splits an address into the lower-cased tokens used for similarity
// matching. Tokens shorter than minTokenLength are dropped. The result is
// empty for blank input and the function never fails on arbitrary
// user-entered text.
func Tokens(address string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(address)) {
		if len(field) < minTokenLength {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}
