package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
)

// MaxStringLen is the largest encoded string the 2-byte length prefix can carry.
const MaxStringLen = 0xFFFF

var (
	ErrStringTooLong = errors.New("encoded string exceeds 65535 bytes")
	ErrMalformedUTF  = errors.New("malformed modified UTF-8")
)

// encodeUTF encodes s as modified UTF-8: UTF-16 code units, NUL as two bytes,
// supplementary characters as a surrogate pair of three bytes each.
func encodeUTF(s string) ([]byte, error) {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, len(units))
	for _, c := range units {
		switch {
		case c != 0 && c < 0x80:
			buf = append(buf, byte(c))
		case c < 0x800:
			buf = append(buf, 0xC0|byte(c>>6), 0x80|byte(c&0x3F))
		default:
			buf = append(buf, 0xE0|byte(c>>12), 0x80|byte((c>>6)&0x3F), 0x80|byte(c&0x3F))
		}
		if len(buf) > MaxStringLen {
			return nil, ErrStringTooLong
		}
	}
	return buf, nil
}

func decodeUTF(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrMalformedUTF, i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrMalformedUTF, i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w at byte %d", ErrMalformedUTF, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

// WriteUTF writes s as a length-prefixed modified UTF-8 string.
// Nothing is written when s cannot be encoded.
func WriteUTF(w io.Writer, s string) error {
	payload, err := encodeUTF(s)
	if err != nil {
		return err
	}
	frame := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(frame, uint16(len(payload)))
	copy(frame[2:], payload)
	_, err = w.Write(frame)
	return err
}

// ReadUTF reads one length-prefixed modified UTF-8 string.
func ReadUTF(r io.Reader) (string, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", err
	}
	payload := make([]byte, binary.BigEndian.Uint16(hdr[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}
	return decodeUTF(payload)
}
