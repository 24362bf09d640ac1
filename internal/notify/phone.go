package notify

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone checks that raw is a valid international number and
// returns it in E.164 form.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "+") {
		return "", fmt.Errorf("phone number %q must start with + and a country code", raw)
	}

	num, err := libphonenumber.Parse(raw, "")
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("phone number %q is not valid", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
