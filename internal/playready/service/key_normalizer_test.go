package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stringerKey struct{ s string }

func (k stringerKey) String() string { return k.s }

func TestNormalizeKeyMaterial(t *testing.T) {
	const want = "e11a656fe4db3444bcb4690d1564c41c"
	raw := []byte{0xe1, 0x1a, 0x65, 0x6f, 0xe4, 0xdb, 0x34, 0x44, 0xbc, 0xb4, 0x69, 0x0d, 0x15, 0x64, 0xc4, 0x1c}
	var fixed [16]byte
	copy(fixed[:], raw)

	tests := []struct {
		name  string
		input any
	}{
		{"bytes", raw},
		{"array", fixed},
		{"uuid", uuid.UUID(fixed)},
		{"lower hex", want},
		{"upper hex", "E11A656FE4DB3444BCB4690D1564C41C"},
		{"uuid string", "e11a656f-e4db-3444-bcb4-690d1564c41c"},
		{"braced guid", "{E11A656F-E4DB-3444-BCB4-690D1564C41C}"},
		{"0x prefix", "0xE11A656FE4DB3444BCB4690D1564C41C"},
		{"colons", "e1:1a:65:6f:e4:db:34:44:bc:b4:69:0d:15:64:c4:1c"},
		{"base64", "4Rplb+TbNES8tGkNFWTEHA=="},
		{"stringer", stringerKey{"E11A656F-E4DB-3444-BCB4-690D1564C41C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKeyMaterial(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeKeyMaterial_Invalid(t *testing.T) {
	for _, input := range []any{"", "   ", []byte{}, 42, "not hex!"} {
		_, err := NormalizeKeyMaterial(input)
		assert.ErrorIs(t, err, ErrInvalidKeyMaterial, "%v", input)
	}
}

func TestNormalizeKeyMaterial_OddLengthHex(t *testing.T) {
	// "abc" also decodes as unpadded base64; hex-only input must not fall through.
	for _, input := range []string{"abc", "0xABC", "e11a656f-e4db-3444-bcb4-690d1564c41", "a"} {
		got, err := NormalizeKeyMaterial(input)
		assert.ErrorIs(t, err, ErrInvalidKeyMaterial, input)
		assert.ErrorContains(t, err, "odd number of hex digits", input)
		assert.Empty(t, got, input)
	}
}

func TestDecodeBase64(t *testing.T) {
	for _, s := range []string{"aGVsbG8=", "aGVsbG8", "aGVs\nbG8=", "-_8=", "-_8"} {
		_, err := DecodeBase64(s)
		assert.NoError(t, err, s)
	}
	_, err := DecodeBase64("!!!")
	assert.Error(t, err)
}
