package provider

import "strings"

// NormalizeISBN strips hyphens and spaces from an identifier.
func NormalizeISBN(id string) string {
	normalized := strings.ReplaceAll(id, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return normalized
}

// ISBN13To10 converts a 978-prefixed ISBN-13 to its ISBN-10 form.
//
// The ISBN-10 check digit is sum(i * d_i) mod 11 over the nine body digits
// (weights 1..9), with 10 written as "X". Inputs that have no ISBN-10
// equivalent are returned normalized with ok=false.
func ISBN13To10(id string) (string, bool) {
	s := NormalizeISBN(id)
	if len(s) != 13 || !strings.HasPrefix(s, "978") || !allDigits(s) {
		return s, false
	}

	body := s[3:12]
	sum := 0
	for i, c := range body {
		sum += (i + 1) * int(c-'0')
	}
	check := sum % 11
	if check == 10 {
		return body + "X", true
	}
	return body + string(rune('0'+check)), true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
