package service

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

const (
	psshBoxType         = "pssh"
	boxHeaderSize       = 8
	fullBoxHeaderSize   = 12
	systemIDSize        = 16
	proHeaderSize       = 6
	proRecordHeaderSize = 4
	proRecordTypeWRM    = 0x0001
)

// ErrInvalidPSSH indicates the bytes are neither pssh boxes nor a PlayReady Object.
var ErrInvalidPSSH = errors.New("invalid pssh")

// PSSHBox is a parsed ISO-BMFF protection system specific header box.
type PSSHBox struct {
	Version  uint8
	Flags    uint32
	SystemID [16]byte
	KeyIDs   [][16]byte
	Data     []byte
}

// IsPlayReady reports whether the box carries PlayReady data.
func (b *PSSHBox) IsPlayReady() bool {
	return b.SystemID == domain.PlayReadySystemID
}

// ParsePSSH extracts the WRM headers carried by data, in order. data may hold
// one or more concatenated pssh boxes or a bare PlayReady Object. Boxes of
// other DRM systems are skipped.
func ParsePSSH(data []byte) ([]string, error) {
	if looksLikeBox(data) {
		boxes, err := ParsePSSHBoxes(data)
		if err != nil {
			return nil, err
		}
		var headers []string
		for _, box := range boxes {
			if !box.IsPlayReady() {
				continue
			}
			found, err := parsePlayReadyObject(box.Data)
			if err != nil {
				return nil, err
			}
			headers = append(headers, found...)
		}
		return headers, nil
	}

	return parsePlayReadyObject(data)
}

// ParsePSSHBoxes parses concatenated pssh boxes. Non-pssh boxes are an error.
func ParsePSSHBoxes(data []byte) ([]*PSSHBox, error) {
	var boxes []*PSSHBox
	for len(data) > 0 {
		if len(data) < boxHeaderSize {
			return nil, fmt.Errorf("%w: truncated box header", ErrInvalidPSSH)
		}

		size := uint64(binary.BigEndian.Uint32(data[0:4]))
		boxType := string(data[4:8])
		headerSize := uint64(boxHeaderSize)

		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < 16 {
				return nil, fmt.Errorf("%w: truncated large box size", ErrInvalidPSSH)
			}
			size = binary.BigEndian.Uint64(data[8:16])
			headerSize = 16
		}
		if size < headerSize || size > uint64(len(data)) {
			return nil, fmt.Errorf("%w: box size %d out of range", ErrInvalidPSSH, size)
		}
		if boxType != psshBoxType {
			return nil, fmt.Errorf("%w: unexpected box type %q", ErrInvalidPSSH, boxType)
		}

		box, err := parsePSSHBody(data[headerSize:size])
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
		data = data[size:]
	}
	return boxes, nil
}

func looksLikeBox(data []byte) bool {
	return len(data) >= boxHeaderSize && string(data[4:8]) == psshBoxType
}

// parsePSSHBody parses the full box fields following the box header.
func parsePSSHBody(body []byte) (*PSSHBox, error) {
	if len(body) < fullBoxHeaderSize-boxHeaderSize+systemIDSize {
		return nil, fmt.Errorf("%w: truncated pssh header", ErrInvalidPSSH)
	}

	box := &PSSHBox{
		Version: body[0],
		Flags:   uint32(body[1])<<16 | uint32(body[2])<<8 | uint32(body[3]),
	}
	copy(box.SystemID[:], body[4:20])
	rest := body[20:]

	switch box.Version {
	case 0:
	case 1:
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: truncated key id count", ErrInvalidPSSH)
		}
		count := binary.BigEndian.Uint32(rest[0:4])
		rest = rest[4:]
		if uint64(count)*16 > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: key id count %d out of range", ErrInvalidPSSH, count)
		}
		box.KeyIDs = make([][16]byte, count)
		for i := range box.KeyIDs {
			copy(box.KeyIDs[i][:], rest[:16])
			rest = rest[16:]
		}
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidPSSH, box.Version)
	}

	if len(rest) < 4 {
		return nil, fmt.Errorf("%w: truncated data size", ErrInvalidPSSH)
	}
	dataSize := binary.BigEndian.Uint32(rest[0:4])
	rest = rest[4:]
	if uint64(dataSize) > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: data size %d out of range", ErrInvalidPSSH, dataSize)
	}
	box.Data = rest[:dataSize]
	return box, nil
}

// parsePlayReadyObject returns the WRM headers of a PlayReady Object.
// Layout (little endian): u32 length, u16 record count, then records of
// u16 type, u16 length, value.
func parsePlayReadyObject(data []byte) ([]string, error) {
	if len(data) < proHeaderSize {
		return nil, fmt.Errorf("%w: truncated playready object", ErrInvalidPSSH)
	}

	length := binary.LittleEndian.Uint32(data[0:4])
	if length < proHeaderSize || uint64(length) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: playready object length %d out of range", ErrInvalidPSSH, length)
	}
	count := binary.LittleEndian.Uint16(data[4:6])
	records := data[proHeaderSize:length]

	var headers []string
	for i := 0; i < int(count); i++ {
		if len(records) < proRecordHeaderSize {
			return nil, fmt.Errorf("%w: truncated playready record", ErrInvalidPSSH)
		}
		recordType := binary.LittleEndian.Uint16(records[0:2])
		recordLen := int(binary.LittleEndian.Uint16(records[2:4]))
		records = records[proRecordHeaderSize:]
		if recordLen > len(records) {
			return nil, fmt.Errorf("%w: playready record length %d out of range", ErrInvalidPSSH, recordLen)
		}

		if recordType == proRecordTypeWRM {
			header, err := decodeUTF16LE(records[:recordLen])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPSSH, err)
			}
			headers = append(headers, header)
		}
		records = records[recordLen:]
	}
	return headers, nil
}

// decodeUTF16LE decodes little endian UTF-16, replacing invalid code units
// with U+FFFD. A dangling odd byte is dropped.
func decodeUTF16LE(b []byte) (string, error) {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(out, []byte("\uFEFF"))), nil
}

// BuildPlayReadyObject encodes WRM headers as a PlayReady Object.
func BuildPlayReadyObject(headers ...string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	var records bytes.Buffer
	for _, header := range headers {
		value, err := enc.Bytes([]byte(header))
		if err != nil {
			return nil, err
		}
		if len(value) > 0xffff {
			return nil, fmt.Errorf("wrm header too large: %d bytes", len(value))
		}
		_ = binary.Write(&records, binary.LittleEndian, uint16(proRecordTypeWRM))
		_ = binary.Write(&records, binary.LittleEndian, uint16(len(value)))
		records.Write(value)
	}

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, uint32(proHeaderSize+records.Len()))
	_ = binary.Write(&out, binary.LittleEndian, uint16(len(headers)))
	out.Write(records.Bytes())
	return out.Bytes(), nil
}

// BuildPSSHBox wraps data in a version 0 pssh box, or version 1 when key ids are given.
func BuildPSSHBox(systemID [16]byte, keyIDs [][16]byte, data []byte) []byte {
	var body bytes.Buffer
	version := byte(0)
	if len(keyIDs) > 0 {
		version = 1
	}
	body.Write([]byte{version, 0, 0, 0})
	body.Write(systemID[:])
	if version == 1 {
		_ = binary.Write(&body, binary.BigEndian, uint32(len(keyIDs)))
		for _, kid := range keyIDs {
			body.Write(kid[:])
		}
	}
	_ = binary.Write(&body, binary.BigEndian, uint32(len(data)))
	body.Write(data)

	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, uint32(boxHeaderSize+body.Len()))
	out.WriteString(psshBoxType)
	out.Write(body.Bytes())
	return out.Bytes()
}
