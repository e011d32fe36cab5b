package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

func TestAPIKey_Masked(t *testing.T) {
	tests := []struct {
		name     string
		key      APIKey
		expected string
	}{
		{
			name:     "generated key",
			key:      APIKey{Username: "alice", Key: "alice_0123456789abcdef0123456789abcdef"},
			expected: "alice_0123" + strings.Repeat("*", 28),
		},
		{
			name:     "foreign key format",
			key:      APIKey{Username: "bob", Key: "secret"},
			expected: "******",
		},
		{
			name:     "short tail",
			key:      APIKey{Username: "bob", Key: "bob_abc"},
			expected: "*******",
		},
		{
			name:     "hint only",
			key:      APIKey{Username: "carol", KeyHint: "beef"},
			expected: "carol_beef" + strings.Repeat("*", 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key.Masked())
		})
	}
}

func TestUsernameFromKey(t *testing.T) {
	tests := []struct {
		key      string
		username string
		ok       bool
	}{
		{key: "alice_0011", username: "alice", ok: true},
		{key: "first_last_0011", username: "first_last", ok: true},
		{key: "_0011", ok: false},
		{key: "alice_", ok: false},
		{key: "alice", ok: false},
		{key: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			username, ok := UsernameFromKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.username, username)
		})
	}
}

func TestKeyHint(t *testing.T) {
	assert.Equal(t, "0123", KeyHint("alice_0123456789abcdef0123456789abcdef"))
	assert.Equal(t, "beef", KeyHint("first_last_beefcafe"))
	assert.Empty(t, KeyHint("bob_abc"))
	assert.Empty(t, KeyHint("secret"))
}

func TestErrors(t *testing.T) {
	assert.True(t, apperrors.Is(ErrAPIKeyMissing, apperrors.ErrForbidden))
	assert.True(t, apperrors.Is(ErrAPIKeyInvalid, apperrors.ErrForbidden))
	assert.True(t, apperrors.Is(ErrAPIKeyNotFound, apperrors.ErrNotFound))
	assert.NotEqual(t, ErrAPIKeyMissing.Error(), ErrAPIKeyInvalid.Error())
}
