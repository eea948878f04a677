package model

import "regexp"

var phoneDigits = regexp.MustCompile(`\D`)

// NormalizePhone joins an area code and a local number into a digits-only,
// country-code-prefixed phone ("55" + DDD + number). Returns "" when either
// part is missing.
func NormalizePhone(areaCode, number string) string {
	area := phoneDigits.ReplaceAllString(areaCode, "")
	num := phoneDigits.ReplaceAllString(number, "")
	if area == "" || num == "" {
		return ""
	}
	return "55" + area + num
}

// UsablePhone reports whether a normalized phone can receive outreach on
// the messaging channel: mobile-shaped only, meaning 11 national digits
// (2-digit area code + 9-digit number) behind the "55" prefix. Fixed-line
// 10-digit numbers never qualify.
func UsablePhone(phone string) bool {
	digits := phoneDigits.ReplaceAllString(phone, "")
	if len(digits) != 13 || digits[:2] != "55" {
		return false
	}
	// Mobile numbers carry a leading 9 after the area code.
	return digits[4] == '9'
}
