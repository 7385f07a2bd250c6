package models

import (
	"regexp"
	"strings"
)

// Cédula format: one nationality letter (V or E, case-insensitive) followed by
// exactly 8 digits, hyphen optional on input. Canonical form is "V-12345678".
var cedulaPattern = regexp.MustCompile(`^([VEve])-?([0-9]{8})$`)

// Venezuelan phone format: leading 0 plus 10 digits, 11 characters total.
var phonePattern = regexp.MustCompile(`^0[0-9]{10}$`)

// ParseCedula validates and normalizes a cédula. Returns the canonical form
// and its nationality/number split, or ok=false when the input is malformed.
func ParseCedula(text string) (canonical, nationality, number string, ok bool) {
	m := cedulaPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", "", false
	}
	nationality = strings.ToUpper(m[1])
	number = m[2]
	return nationality + "-" + number, nationality, number, true
}

// ValidPhone reports whether text is a well-formed local phone number.
func ValidPhone(text string) bool {
	return phonePattern.MatchString(strings.TrimSpace(text))
}
