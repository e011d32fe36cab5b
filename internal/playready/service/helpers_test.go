package service

import (
	"encoding/base64"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const sampleWRMHeader = `<WRMHEADER xmlns="http://schemas.microsoft.com/DRM/2007/03/PlayReadyHeader" version="4.0.0.0">` +
	`<DATA><PROTECTINFO><KEYLEN>16</KEYLEN><ALGID>AESCTR</ALGID></PROTECTINFO>` +
	`<KID>4Rplb+TbNES8tGkNFWTEHA==</KID><LA_URL>https://license.example.com/rightsmanager.asmx</LA_URL>` +
	`</DATA></WRMHEADER>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func utf16le(t *testing.T, s string) []byte {
	t.Helper()
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func playReadyBox(t *testing.T, keyIDs [][16]byte, headers ...string) []byte {
	t.Helper()
	pro, err := BuildPlayReadyObject(headers...)
	require.NoError(t, err)
	return BuildPSSHBox(playReadySystemID(), keyIDs, pro)
}

func playReadySystemID() [16]byte {
	return [16]byte{
		0x9a, 0x04, 0xf0, 0x79, 0x98, 0x40, 0x42, 0x86,
		0xab, 0x92, 0xe6, 0x5b, 0xe0, 0x88, 0x5f, 0x95,
	}
}

func widevineSystemID() [16]byte {
	return [16]byte{
		0xed, 0xef, 0x8b, 0xa9, 0x79, 0xd6, 0x4a, 0xce,
		0xa3, 0xc8, 0x27, 0xdc, 0xd5, 0x1d, 0x21, 0xed,
	}
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
