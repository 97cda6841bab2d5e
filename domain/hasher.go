package domain

// Hasher fingerprints secrets (API keys) so they can be logged and compared
// without being revealed.
type Hasher interface {
	Hash(data []byte) string
}
