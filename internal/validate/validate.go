// Package validate holds small format checks for user-supplied identifiers.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reCPF   = regexp.MustCompile(`^[0-9]{3}\.[0-9]{3}\.[0-9]{3}-[0-9]{2}$`)
	reCNPJ  = regexp.MustCompile(`^[0-9]{2}\.[0-9]{3}\.[0-9]{3}/[0-9]{4}-[0-9]{2}$`)
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// CPF accepts only the punctuated individual taxpayer format ddd.ddd.ddd-dd.
// Check digits are not verified.
func CPF(s string) bool {
	return reCPF.MatchString(s)
}

// CNPJ accepts only the punctuated company format dd.ddd.ddd/dddd-dd.
func CNPJ(s string) bool {
	return reCNPJ.MatchString(s)
}

// Email trims and lower-cases s and reports whether it looks like an address.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Text trims s and reports whether its length in characters is within
// [min, max].
func Text(s string, min, max int) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= min && n <= max
}

// Latitude reports whether v is a valid latitude in degrees.
func Latitude(v float64) bool {
	return v >= -90 && v <= 90
}

// Longitude reports whether v is a valid longitude in degrees.
func Longitude(v float64) bool {
	return v >= -180 && v <= 180
}
