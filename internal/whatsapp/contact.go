package whatsapp

import (
	"strings"
	"unicode"
)

// DefaultCountryCode is prepended to identifiers that lack it.
const DefaultCountryCode = "57"

// ContactID is a digit-only phone number carrying its country-code prefix.
type ContactID string

func (c ContactID) String() string { return string(c) }

// NormalizeContact strips every non-digit character from raw and prepends
// countryCode when the remaining digits do not already start with it.
// The result is idempotent: normalizing a normalized ID returns it unchanged.
func NormalizeContact(raw, countryCode string) (ContactID, error) {
	var b strings.Builder
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrEmptyContact
	}
	if countryCode != "" && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return ContactID(digits), nil
}
