package geocode

import "strings"

// NormalizePostcode upper-cases a postcode and collapses whitespace so it
// can be used as a stable cache key.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
