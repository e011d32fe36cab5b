package service

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKeyMaterial indicates a key id or key that cannot be represented as hex.
var ErrInvalidKeyMaterial = errors.New("invalid key material")

var keyMaterialReplacer = strings.NewReplacer("-", "", "{", "", "}", "", ":", "", " ", "", "\t", "", "\n", "")

// NormalizeKeyMaterial returns v as lowercase hex. Accepted inputs are raw bytes,
// UUIDs, and strings in hex (any case, with dashes, braces, colons or a 0x
// prefix) or base64.
func NormalizeKeyMaterial(v any) (string, error) {
	switch t := v.(type) {
	case []byte:
		if len(t) == 0 {
			return "", fmt.Errorf("%w: empty", ErrInvalidKeyMaterial)
		}
		return hex.EncodeToString(t), nil
	case uuid.UUID:
		return hex.EncodeToString(t[:]), nil
	case [16]byte:
		return hex.EncodeToString(t[:]), nil
	case string:
		return normalizeKeyString(t)
	case fmt.Stringer:
		return normalizeKeyString(t.String())
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidKeyMaterial, v)
	}
}

func normalizeKeyString(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKeyMaterial)
	}

	candidate := keyMaterialReplacer.Replace(trimmed)
	if strings.HasPrefix(candidate, "0x") || strings.HasPrefix(candidate, "0X") {
		candidate = candidate[2:]
	}
	candidate = strings.ToLower(candidate)
	if candidate != "" && isHex(candidate) {
		if len(candidate)%2 != 0 {
			return "", fmt.Errorf("%w: %q has an odd number of hex digits", ErrInvalidKeyMaterial, s)
		}
		return candidate, nil
	}

	if raw, err := DecodeBase64(trimmed); err == nil && len(raw) > 0 {
		return hex.EncodeToString(raw), nil
	}

	return "", fmt.Errorf("%w: %q is neither hex nor base64", ErrInvalidKeyMaterial, s)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
