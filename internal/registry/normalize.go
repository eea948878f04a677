package registry

import "strings"

// NormalizeName canonicalizes a company name for storage and matching:
// uppercase with runs of whitespace collapsed to single spaces. Accents are
// kept as-is; the source dataset carries them and queries are expected to.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}
