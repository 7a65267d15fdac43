// Package signature validates inbound webhook authenticity. Meta signs
// the exact raw request body with the app secret and sends the digest
// in the X-Hub-Signature-256 header; verification must happen on those
// raw bytes, before any JSON parsing (re-serializing changes the byte
// content and invalidates the check).
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	prefixSHA256 = "sha256="
	prefixSHA1   = "sha1="
)

// Verifier checks webhook signatures against a pre-shared app secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether header carries a valid keyed hash of body.
// It accepts sha256= (preferred) and sha1= (legacy) prefixes and
// returns false on a missing, malformed or unsupported header. The
// digest comparison is constant-time.
func (v *Verifier) Verify(body []byte, header string) bool {
	header = strings.TrimSpace(header)

	var mac []byte
	var digest string
	switch {
	case strings.HasPrefix(header, prefixSHA256):
		digest = header[len(prefixSHA256):]
		h := hmac.New(sha256.New, v.secret)
		h.Write(body)
		mac = h.Sum(nil)
	case strings.HasPrefix(header, prefixSHA1):
		digest = header[len(prefixSHA1):]
		h := hmac.New(sha1.New, v.secret)
		h.Write(body)
		mac = h.Sum(nil)
	default:
		return false
	}

	expected, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(mac, expected)
}

// Sign returns the sha256= header value for body. Used by tests and
// local tooling; production traffic is signed by the provider.
func (v *Verifier) Sign(body []byte) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write(body)
	return prefixSHA256 + hex.EncodeToString(h.Sum(nil))
}

// SignLegacy returns the sha1= header value for body.
func (v *Verifier) SignLegacy(body []byte) string {
	h := hmac.New(sha1.New, v.secret)
	h.Write(body)
	return prefixSHA1 + hex.EncodeToString(h.Sum(nil))
}
