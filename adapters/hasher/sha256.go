package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

const fingerprintLen = 12

// New returns a domain.Hasher backed by SHA-256.
func New() domain.Hasher { return sha256Hasher{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, log-safe identifier for secret. Empty secrets
// have no fingerprint.
func Fingerprint(h domain.Hasher, secret string) string {
	if secret == "" {
		return ""
	}
	return h.Hash([]byte(secret))[:fingerprintLen]
}
