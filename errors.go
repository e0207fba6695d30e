package miniq

import (
	"errors"
	"fmt"

	"github.com/coreiot/miniq/internal/wire"
)

// Sentinel errors for caller misuse, per spec.md section 7's "state
// errors" family. These fail the call without touching the socket.
var (
	ErrNotConnected     = errors.New("miniq: not connected")
	ErrAlreadyConnected = errors.New("miniq: already connected")
	ErrInvalidTopic     = errors.New("miniq: invalid topic")
	ErrInvalidQoS       = errors.New("miniq: invalid qos")
	ErrNotSubscribed    = errors.New("miniq: not subscribed to topic")
	ErrWillAfterConnect = errors.New("miniq: will_set after connect")

	// ErrRepeatedConnectFailures is returned by Connect when every
	// connect attempt in the back-off schedule has been exhausted,
	// per spec.md section 8's scenario 6.
	ErrRepeatedConnectFailures = errors.New("miniq: repeated connect failures")
)

// StateError reports caller misuse detected before any I/O was
// attempted: publishing while disconnected, an invalid topic, an
// unknown subscription being removed, and so on. Per spec.md section 7,
// a StateError never closes the socket or changes connection state.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string { return fmt.Sprintf("miniq: %s: %v", e.Op, e.Err) }
func (e *StateError) Unwrap() error { return e.Err }

func newStateError(op string, err error) *StateError {
	return &StateError{Op: op, Err: err}
}

// ProtocolError reports a malformed inbound packet or an unexpected
// packet type observed mid-exchange. Per spec.md section 7, encountering
// one closes the socket and marks the session disconnected.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("miniq: protocol error during %s: %v", e.Op, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

func newProtocolError(op string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Err: err}
}

// TransportError reports a socket I/O failure or a receive timeout.
// Per spec.md section 7, encountering one closes the socket and marks
// the session disconnected; Connect retries it under the back-off
// policy, other operations surface it directly.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("miniq: transport error during %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// ConnectError reports a CONNACK refusal. ReturnCode is the broker's
// code verbatim (spec.md section 7); Fatal is true for codes 0x04/0x05,
// which Connect never retries.
type ConnectError struct {
	ReturnCode uint8
	Reason     string
	Fatal      bool
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("miniq: connect refused (0x%02X): %s", e.ReturnCode, e.Reason)
}

func newConnectError(code uint8) *ConnectError {
	return &ConnectError{
		ReturnCode: code,
		Reason:     wire.ConnAckReason(code),
		Fatal:      code == wire.ConnRefusedBadUsernameOrPassword || code == wire.ConnRefusedNotAuthorized,
	}
}

// SubscribeError reports a SUBACK failure byte (0x80) for one or more
// topics in a subscribe request, per spec.md section 7. The surviving
// topics (if any) are still recorded in the session and their
// OnSubscribe callbacks still fire; only the refused ones are listed
// here.
type SubscribeError struct {
	Topics []string
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("miniq: subscription refused by server for %v", e.Topics)
}
