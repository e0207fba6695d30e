package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Publish holds every field of a PUBLISH packet, per spec.md section 4.1.
type Publish struct {
	Topic    string
	QoS      uint8
	Retain   bool
	Dup      bool
	PacketID uint16 // only meaningful when QoS > 0
	Payload  []byte
}

// WriteTo encodes the PUBLISH packet, including its fixed header, to w.
func (p Publish) WriteTo(w io.Writer) (int64, error) {
	if p.Topic == "" {
		return 0, fmt.Errorf("wire: publish topic must not be empty")
	}
	for i := 0; i < len(p.Topic); i++ {
		if p.Topic[i] == '+' || p.Topic[i] == '#' {
			return 0, fmt.Errorf("wire: publish topic %q must not contain wildcards", p.Topic)
		}
	}
	if len(p.Payload) > MaxRemainingLength {
		return 0, fmt.Errorf("wire: publish payload of %d bytes exceeds maximum", len(p.Payload))
	}

	var err error
	body := make([]byte, 0, len(p.Topic)+len(p.Payload)+4)
	body, err = AppendString(body, p.Topic)
	if err != nil {
		return 0, err
	}
	if p.QoS > 0 {
		body = appendUint16(body, p.PacketID)
	}
	body = append(body, p.Payload...)

	var flags uint8
	if p.Dup {
		flags |= 0x08
	}
	flags |= (p.QoS & 0x03) << 1
	if p.Retain {
		flags |= 0x01
	}

	header := FixedHeader{Type: TypePublish, Flags: flags, RemainingLength: len(body)}
	hn, err := header.WriteTo(w)
	if err != nil {
		return hn, err
	}
	bn, err := w.Write(body)
	return hn + int64(bn), err
}

// DecodePublish reads a PUBLISH packet's variable header and payload
// from r given the already-decoded fixed header. r must be bounded to
// exactly h.RemainingLength bytes (use io.LimitReader).
func DecodePublish(h FixedHeader, r io.Reader) (Publish, error) {
	qos := (h.Flags >> 1) & 0x03
	p := Publish{
		Dup:    h.Flags&0x08 != 0,
		QoS:    qos,
		Retain: h.Flags&0x01 != 0,
	}
	topic, err := DecodeString(r)
	if err != nil {
		return Publish{}, fmt.Errorf("wire: decoding publish topic: %w", err)
	}
	p.Topic = topic

	if qos > 0 {
		var idBuf [2]byte
		if _, err := io.ReadFull(r, idBuf[:]); err != nil {
			return Publish{}, fmt.Errorf("wire: decoding publish packet id: %w", err)
		}
		p.PacketID = binary.BigEndian.Uint16(idBuf[:])
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return Publish{}, fmt.Errorf("wire: decoding publish payload: %w", err)
	}
	p.Payload = payload
	return p, nil
}

// PubAck is the PUBACK packet's variable header, per spec.md section 4.1.
type PubAck struct {
	PacketID uint16
}

// WriteTo encodes the PUBACK packet, including its fixed header, to w.
func (a PubAck) WriteTo(w io.Writer) (int64, error) {
	header := FixedHeader{Type: TypePubAck, RemainingLength: 2}
	hn, err := header.WriteTo(w)
	if err != nil {
		return hn, err
	}
	buf := appendUint16(nil, a.PacketID)
	bn, err := w.Write(buf)
	return hn + int64(bn), err
}

// DecodePubAck reads the 2-byte PUBACK variable header from r.
func DecodePubAck(r io.Reader) (PubAck, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return PubAck{}, fmt.Errorf("wire: decoding puback: %w", err)
	}
	return PubAck{PacketID: binary.BigEndian.Uint16(buf[:])}, nil
}
