// Package cnpj implements validation and derivation of Brazilian CNPJ
// registry identifiers: an 8-digit company base, a 4-digit branch order,
// and 2 check digits computed by weighted mod-11 sums.
package cnpj

import (
	"regexp"
	"strings"
)

// MatrixBranch is the branch order of a company's headquarters establishment.
const MatrixBranch = "0001"

var nonDigits = regexp.MustCompile(`\D`)

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

var (
	weightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

func checkDigit(digits string, weights []int) byte {
	sum := 0
	for i := range digits {
		sum += int(digits[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

// CheckDigits computes the two check digits for the first 12 digits of a
// CNPJ. The input must be exactly 12 digits; anything else returns "".
func CheckDigits(first12 string) string {
	if len(first12) != 12 || OnlyDigits(first12) != first12 {
		return ""
	}

	dv1 := checkDigit(first12, weightsFirst)
	dv2 := checkDigit(first12+string([]byte{dv1}), weightsSecond)

	return string([]byte{dv1, dv2})
}

// Valid reports whether id is a well-formed 14-digit CNPJ: correct length,
// digits only, not a single repeated digit, and check digits matching the
// first 12 positions.
func Valid(id string) bool {
	id = OnlyDigits(id)
	if len(id) != 14 {
		return false
	}
	if strings.Count(id, id[:1]) == 14 {
		return false
	}
	return id[12:] == CheckDigits(id[:12])
}

// MatrixID derives the full 14-digit headquarters CNPJ from an 8-digit
// company base id. Shorter inputs are left-zero-padded.
func MatrixID(baseID string) string {
	base := OnlyDigits(baseID)
	if len(base) > 8 {
		base = base[len(base)-8:]
	}
	base = strings.Repeat("0", 8-len(base)) + base
	first12 := base + MatrixBranch
	return first12 + CheckDigits(first12)
}

// FullID assembles a 14-digit CNPJ from its dump columns, zero-padding each
// part to its fixed width.
func FullID(baseID, branchOrder, checkDigits string) string {
	return pad(baseID, 8) + pad(branchOrder, 4) + pad(checkDigits, 2)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
