// Package service provides technical services for API key operations.
package service

// KeyService defines operations for API key generation, hashing and comparison.
type KeyService interface {
	// GenerateKey creates a new key for username in the form "<username>_<32 hex chars>".
	GenerateKey(username string) (string, error)

	// HashKey hashes key with Argon2id for stores that must not keep it in clear.
	HashKey(key string) (string, error)

	// VerifyKey reports whether presented matches a hash produced by HashKey.
	VerifyKey(presented, hash string) bool

	// CompareKey reports whether two keys are equal in constant time.
	CompareKey(presented, stored string) bool
}
