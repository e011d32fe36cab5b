package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

// keyTokenBytes is the number of random bytes appended to the username.
const keyTokenBytes = 16

// keyService implements KeyService using crypto/rand and Argon2id.
type keyService struct {
	random io.Reader
	hasher *pwdhash.PasswordHasher
}

// GenerateKey creates a new key with 128 bits of randomness.
func (k *keyService) GenerateKey(username string) (string, error) {
	buf := make([]byte, keyTokenBytes)
	if _, err := io.ReadFull(k.random, buf); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random api key")
	}
	return username + "_" + hex.EncodeToString(buf), nil
}

// HashKey hashes key using Argon2id.
func (k *keyService) HashKey(key string) (string, error) {
	hash, err := k.hasher.Hash([]byte(key))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash api key")
	}
	return hash, nil
}

// VerifyKey checks presented against an Argon2id hash. A malformed hash never matches.
func (k *keyService) VerifyKey(presented, hash string) bool {
	ok, err := k.hasher.Verify([]byte(presented), hash)
	if err != nil {
		return false
	}
	return ok
}

// CompareKey compares keys with subtle.ConstantTimeCompare.
func (k *keyService) CompareKey(presented, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

// NewKeyService creates a new KeyService backed by crypto/rand.
// Uses the Interactive policy since keys are verified on the request path.
func NewKeyService() KeyService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		// Only reachable with an invalid policy.
		panic(err)
	}
	return &keyService{random: rand.Reader, hasher: hasher}
}
