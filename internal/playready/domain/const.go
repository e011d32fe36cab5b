package domain

// WRM header delimiters.
const (
	WRMHeaderOpenTag  = "<WRMHEADER"
	WRMHeaderCloseTag = "</WRMHEADER>"
)

// PlayReadySystemID is the DRM system id carried by PlayReady pssh boxes
// (9a04f079-9840-4286-ab92-e65be0885f95).
var PlayReadySystemID = [16]byte{
	0x9a, 0x04, 0xf0, 0x79, 0x98, 0x40, 0x42, 0x86,
	0xab, 0x92, 0xe6, 0x5b, 0xe0, 0x88, 0x5f, 0x95,
}

// LicenseParsedMessage is returned alongside extracted keys.
const LicenseParsedMessage = "Successfully parsed and loaded the Keys from the License message."
