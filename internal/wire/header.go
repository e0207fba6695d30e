package wire

import (
	"fmt"
	"io"
)

// FixedHeader is the 1-byte type+flags field plus the variable-length
// remaining-length field present at the start of every MQTT packet,
// per MQTT v3.1.1 section 2.2.
type FixedHeader struct {
	Type            uint8
	Flags           uint8
	RemainingLength int
}

// WriteTo encodes the fixed header to w.
func (h FixedHeader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, 5)
	buf = append(buf, (h.Type<<4)|(h.Flags&0x0F))
	buf, err := AppendRemainingLength(buf, h.RemainingLength)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// DecodeFixedHeader reads and decodes a fixed header from r. The
// caller uses h.Type to decide how to interpret the following
// h.RemainingLength bytes.
func DecodeFixedHeader(r io.Reader) (FixedHeader, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return FixedHeader{}, err
	}
	remaining, err := DecodeRemainingLength(r)
	if err != nil {
		return FixedHeader{}, fmt.Errorf("wire: decoding remaining length: %w", err)
	}
	return FixedHeader{
		Type:            b[0] >> 4,
		Flags:           b[0] & 0x0F,
		RemainingLength: remaining,
	}, nil
}
