// Package phone canonicalizes user phone numbers. Every session,
// favorites and outbound-send lookup uses the normalized form; inbound
// identifiers are normalized exactly once at ingress.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalidIdentifier is returned when the input does not reduce to
// 10-15 digits after stripping a leading "+".
var ErrInvalidIdentifier = errors.New("invalid phone identifier")

const (
	minDigits = 10
	maxDigits = 15
)

// Normalize returns the canonical "+<digits>" form of a raw phone
// number. It is idempotent: normalizing an already normalized number
// returns it unchanged.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	if len(s) < minDigits || len(s) > maxDigits {
		return "", ErrInvalidIdentifier
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalidIdentifier
		}
	}
	return "+" + s, nil
}
