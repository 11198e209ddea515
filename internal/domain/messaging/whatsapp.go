package messaging

import (
	"net/url"
	"strings"
)

// DefaultCountryCode is prepended to ten-digit local numbers
const DefaultCountryCode = "91"

// WhatsAppLink builds a click-to-chat URL: https://wa.me/<digits>?text=<escaped>
func WhatsAppLink(phone, text string) string {
	digits := NormalizePhone(phone)
	link := "https://wa.me/" + digits
	if text == "" {
		return link
	}
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// NormalizePhone keeps digits only. A bare ten-digit number is treated as
// local and gets the default country code; a leading trunk 0 is dropped.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) == 10 {
		digits = DefaultCountryCode + digits
	}
	return digits
}
