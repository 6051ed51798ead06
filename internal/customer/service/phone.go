package service

import (
	"regexp"
	"strings"

	"github.com/smallbiznis/vindisync/internal/vindi"
)

// PhoneType is empty when a number cannot be classified.
type PhoneType string

const (
	PhoneLandline PhoneType = vindi.PhoneLandline
	PhoneMobile   PhoneType = vindi.PhoneMobile
)

const countryCode = "55"

var nonDigits = regexp.MustCompile(`\D+`)

// NormalizePhone returns the number in national format with the country
// code: punctuation and a single trunk zero are dropped.
func NormalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	digits = strings.TrimPrefix(digits, "0")
	if digits == "" {
		return ""
	}
	return countryCode + digits
}

// ClassifyPhone maps the normalized length to a phone type: 12 digits is a
// landline (2-digit area code + 8), 13 a mobile (area code + 9).
func ClassifyPhone(phone string) PhoneType {
	switch len(NormalizePhone(phone)) {
	case 12:
		return PhoneLandline
	case 13:
		return PhoneMobile
	default:
		return ""
	}
}

// phonesPayload never fails: unknown numbers are simply left out.
func phonesPayload(phone string) []vindi.Phone {
	kind := ClassifyPhone(phone)
	if kind == "" {
		return nil
	}
	return []vindi.Phone{{PhoneType: string(kind), Number: NormalizePhone(phone)}}
}
