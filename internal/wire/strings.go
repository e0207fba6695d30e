package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// AppendString appends a 2-byte-length-prefixed UTF-8 string to dst,
// per MQTT v3.1.1 section 1.5.3. It fails if s exceeds MaxStringLength
// bytes once UTF-8 encoded.
func AppendString(dst []byte, s string) ([]byte, error) {
	if len(s) > MaxStringLength {
		return dst, fmt.Errorf("wire: string of %d bytes exceeds maximum of %d", len(s), MaxStringLength)
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...), nil
}

// AppendBinary appends a 2-byte-length-prefixed opaque byte string.
// This client uses it for the CONNECT will message.
func AppendBinary(dst []byte, b []byte) ([]byte, error) {
	if len(b) > MaxStringLength {
		return dst, fmt.Errorf("wire: binary field of %d bytes exceeds maximum of %d", len(b), MaxStringLength)
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(b)))
	return append(dst, b...), nil
}

// DecodeString reads a 2-byte-length-prefixed UTF-8 string from r.
func DecodeString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
