package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsStableHex(t *testing.T) {
	h := New()
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		h.Hash([]byte("hello")))
}

func TestFingerprint(t *testing.T) {
	h := New()
	assert.Equal(t, "", Fingerprint(h, ""))
	assert.Equal(t, "2cf24dba5fb0", Fingerprint(h, "hello"))
	assert.NotEqual(t, Fingerprint(h, "sk-a"), Fingerprint(h, "sk-b"))
}
