package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("app_secret")
	bodies := [][]byte{
		[]byte(`{}`),
		[]byte(`{"object":"whatsapp_business_account","entry":[]}`),
		[]byte(""),
		{0x00, 0xff, 0x10},
	}
	for _, body := range bodies {
		if !v.Verify(body, v.Sign(body)) {
			t.Fatalf("signature did not verify for body %q", body)
		}
	}
}

func TestVerifyRejectsMutations(t *testing.T) {
	v := NewVerifier("app_secret")
	body := []byte(`{"object":"whatsapp_business_account"}`)
	header := v.Sign(body)

	// Flip one bit of the body.
	mutated := append([]byte(nil), body...)
	mutated[0] ^= 0x01
	if v.Verify(mutated, header) {
		t.Fatal("mutated body verified")
	}

	// Flip one hex character of the digest.
	tampered := []byte(header)
	last := tampered[len(tampered)-1]
	if last == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}
	if v.Verify(body, string(tampered)) {
		t.Fatal("tampered header verified")
	}
}

func TestVerifyAcceptsLegacySHA1(t *testing.T) {
	v := NewVerifier("app_secret")
	body := []byte(`{"legacy":true}`)

	h := hmac.New(sha1.New, []byte("app_secret"))
	h.Write(body)
	header := "sha1=" + hex.EncodeToString(h.Sum(nil))

	if !v.Verify(body, header) {
		t.Fatal("sha1 signature rejected")
	}
}

func TestVerifyMalformedHeaders(t *testing.T) {
	v := NewVerifier("app_secret")
	body := []byte(`{}`)

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "no prefix", header: "deadbeef"},
		{name: "unsupported algorithm", header: "md5=deadbeef"},
		{name: "not hex", header: "sha256=zzzz"},
		{name: "prefix only", header: "sha256="},
		{name: "wrong secret", header: NewVerifier("other").Sign(body)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v.Verify(body, tt.header) {
				t.Fatalf("header %q verified", tt.header)
			}
		})
	}
}
