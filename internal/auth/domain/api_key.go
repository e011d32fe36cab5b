// Package domain defines the API key model used to authenticate proxy clients.
//
// Every key belongs to exactly one username. Issuing a key for a username that
// already has one replaces the previous key.
package domain

import (
	"strings"
	"time"
)

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "X-API-KEY"

// KeyHintLength is the number of token characters kept in clear by SQL stores.
const KeyHintLength = 4

// keyTokenLength is the length of the hex token following the username.
const keyTokenLength = 32

// APIKey associates an opaque key with the user it was issued to.
//
// The file store keeps Key in clear for compatibility with the historical
// APIKEY.json layout. SQL stores keep only KeyHash and KeyHint.
type APIKey struct {
	Username  string    `json:"username"`
	Key       string    `json:"apikey"` //nolint:gosec // plaintext by design of the key file format
	KeyHash   string    `json:"-"`
	KeyHint   string    `json:"-"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Masked returns the key with everything after the username prefix hidden.
// Used when listing keys on the command line.
func (k *APIKey) Masked() string {
	prefix := k.Username + "_"
	if k.Key == "" && k.KeyHint != "" {
		return prefix + k.KeyHint + strings.Repeat("*", keyTokenLength-len(k.KeyHint))
	}
	if !strings.HasPrefix(k.Key, prefix) || len(k.Key) <= len(prefix)+KeyHintLength {
		return strings.Repeat("*", len(k.Key))
	}
	tail := k.Key[len(prefix):]
	return prefix + tail[:KeyHintLength] + strings.Repeat("*", len(tail)-KeyHintLength)
}

// UsernameFromKey returns the username a key was issued to. Usernames may contain
// underscores but the token never does, so the key is split at the last one.
func UsernameFromKey(key string) (string, bool) {
	i := strings.LastIndexByte(key, '_')
	if i <= 0 || i == len(key)-1 {
		return "", false
	}
	return key[:i], true
}

// KeyHint returns the first token characters of key, or "" when key is not in
// the "<username>_<token>" form.
func KeyHint(key string) string {
	username, ok := UsernameFromKey(key)
	if !ok {
		return ""
	}
	token := key[len(username)+1:]
	if len(token) <= KeyHintLength {
		return ""
	}
	return token[:KeyHintLength]
}
