package channel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer produces HMAC-SHA256 signatures so webhook receivers can verify
// that a payload came from us
type Signer struct {
	secret []byte
}

// NewSigner returns nil for an empty secret
func NewSigner(secret string) *Signer {
	if secret == "" {
		return nil
	}
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex encoded HMAC of payload
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign
func (s *Signer) Verify(payload []byte, signature string) bool {
	return hmac.Equal([]byte(s.Sign(payload)), []byte(signature))
}
