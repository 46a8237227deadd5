package order

import "strings"

// NormalizePhone keeps digits only and prefixes "+<countryCode>". A number that already
// carries the international prefix, as "+cc" or "00cc", is not prefixed twice.
// It returns "" when the input has no digits.
func NormalizePhone(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	countryCode = strings.TrimLeft(digitsOnly(countryCode), "0")

	if countryCode != "" {
		switch {
		case strings.HasPrefix(phone, "+"):
			if digits := digitsOnly(phone); strings.HasPrefix(digits, countryCode) {
				phone = digits[len(countryCode):]
			}
		case strings.HasPrefix(digitsOnly(phone), "00"+countryCode):
			phone = digitsOnly(phone)[2+len(countryCode):]
		}
	}

	digits := digitsOnly(phone)
	if digits == "" {
		return ""
	}

	return "+" + countryCode + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
