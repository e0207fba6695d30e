package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TopicFilter pairs a subscription pattern with its requested QoS.
type TopicFilter struct {
	Topic string
	QoS   uint8
}

// Subscribe holds a SUBSCRIBE packet's variable header and payload,
// per spec.md section 4.1.
type Subscribe struct {
	PacketID uint16
	Filters  []TopicFilter
}

// WriteTo encodes the SUBSCRIBE packet, including its fixed header, to w.
// The fixed header flags are always 0x2, per MQTT v3.1.1 section 3.8.1.
func (s Subscribe) WriteTo(w io.Writer) (int64, error) {
	if len(s.Filters) == 0 {
		return 0, fmt.Errorf("wire: subscribe requires at least one topic filter")
	}
	var err error
	body := appendUint16(nil, s.PacketID)
	for _, f := range s.Filters {
		body, err = AppendString(body, f.Topic)
		if err != nil {
			return 0, err
		}
		body = append(body, f.QoS&0x03)
	}

	header := FixedHeader{Type: TypeSubscribe, Flags: 0x02, RemainingLength: len(body)}
	hn, err := header.WriteTo(w)
	if err != nil {
		return hn, err
	}
	bn, err := w.Write(body)
	return hn + int64(bn), err
}

// SubAck holds a SUBACK packet's variable header and payload.
type SubAck struct {
	PacketID    uint16
	ReturnCodes []uint8
}

// DecodeSubAck reads a SUBACK packet's body from r, given the already
// decoded fixed header. r must be bounded to exactly h.RemainingLength
// bytes.
func DecodeSubAck(h FixedHeader, r io.Reader) (SubAck, error) {
	var idBuf [2]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return SubAck{}, fmt.Errorf("wire: decoding suback packet id: %w", err)
	}
	codes := make([]byte, h.RemainingLength-2)
	if _, err := io.ReadFull(r, codes); err != nil {
		return SubAck{}, fmt.Errorf("wire: decoding suback return codes: %w", err)
	}
	return SubAck{
		PacketID:    binary.BigEndian.Uint16(idBuf[:]),
		ReturnCodes: codes,
	}, nil
}

// Unsubscribe holds an UNSUBSCRIBE packet's variable header and payload.
type Unsubscribe struct {
	PacketID uint16
	Topics   []string
}

// WriteTo encodes the UNSUBSCRIBE packet, including its fixed header, to w.
// The fixed header flags are always 0x2, per MQTT v3.1.1 section 3.10.1.
func (u Unsubscribe) WriteTo(w io.Writer) (int64, error) {
	if len(u.Topics) == 0 {
		return 0, fmt.Errorf("wire: unsubscribe requires at least one topic")
	}
	var err error
	body := appendUint16(nil, u.PacketID)
	for _, t := range u.Topics {
		body, err = AppendString(body, t)
		if err != nil {
			return 0, err
		}
	}

	header := FixedHeader{Type: TypeUnsubscribe, Flags: 0x02, RemainingLength: len(body)}
	hn, err := header.WriteTo(w)
	if err != nil {
		return hn, err
	}
	bn, err := w.Write(body)
	return hn + int64(bn), err
}

// UnsubAck holds an UNSUBACK packet's variable header.
type UnsubAck struct {
	PacketID uint16
}

// DecodeUnsubAck reads the 2-byte UNSUBACK variable header from r.
func DecodeUnsubAck(r io.Reader) (UnsubAck, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return UnsubAck{}, fmt.Errorf("wire: decoding unsuback: %w", err)
	}
	return UnsubAck{PacketID: binary.BigEndian.Uint16(buf[:])}, nil
}
