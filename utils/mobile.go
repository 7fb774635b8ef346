package utils

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// SanitizeMobile parses a phone number and formats it as E.164.
// Numbers without a leading '+' are interpreted in defaultRegion.
func SanitizeMobile(number, defaultRegion string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", fmt.Errorf("empty mobile number")
	}
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = "ZZ"
	}
	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", fmt.Errorf("invalid mobile number %q: %w", number, err)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
