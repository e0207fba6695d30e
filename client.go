package miniq

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/coreiot/miniq/internal/wire"
	"github.com/coreiot/miniq/transport"
)

// connState is one of the four states spec.md section 4.5 names.
// Disconnected is the terminal state.
type connState uint8

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateDisconnecting
)

// Client is a single-session MQTT 3.1.1 client. It is not safe for
// concurrent use: callers must serialize every public method call, per
// spec.md section 5.
type Client struct {
	cfg   *config
	sock  transport.Socket
	sess  *session
	subs  *subscriptionTable
	will  will
	state connState
}

// New constructs a disconnected Client for the given broker host. The
// port defaults to 1883, or 8883 if WithTLS was passed; WithPort
// overrides either default, per spec.md section 3.
func New(host string, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig(host)
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	subs := newSubscriptionTable()
	subs.onMsg = cfg.OnMessage
	return &Client{cfg: cfg, sess: newSession(), subs: subs, state: stateDisconnected}, nil
}

// UserData returns the opaque handle passed via WithUserData.
func (c *Client) UserData() any { return c.cfg.UserData }

// IsConnected reports whether the client believes it holds a live
// session. Per invariant I6 in spec.md section 3, this agrees with
// whether a socket is held.
func (c *Client) IsConnected() bool { return c.state == stateConnected }

// WillSet configures the last-will message sent by the broker if this
// client disconnects ungracefully. It must be called before Connect
// (spec.md section 3); calling it afterward is a state error.
func (c *Client) WillSet(topic string, payload []byte, retain bool, qos uint8) error {
	if c.state != stateDisconnected {
		return newStateError("will_set", ErrWillAfterConnect)
	}
	if err := validateQoS(qos); err != nil {
		return newStateError("will_set", err)
	}
	if err := validatePublishTopic(topic); err != nil {
		return newStateError("will_set", err)
	}
	c.will = will{set: true, topic: topic, payload: payload, qos: qos, retain: retain}
	return nil
}

// AddTopicCallback registers fn to run for every inbound PUBLISH whose
// topic matches pattern, replacing any callback already registered for
// the same pattern (spec.md section 3). It may be called whether or
// not the client is connected.
func (c *Client) AddTopicCallback(pattern string, fn MessageHandler) {
	c.subs.add(pattern, fn)
}

// RemoveTopicCallback deregisters the callback for pattern, if any.
func (c *Client) RemoveTopicCallback(pattern string) {
	c.subs.remove(pattern)
}

// ConnectOption overrides a single Connect call's parameters, per
// spec.md section 6's connect(clean_session, host?, port?, keep_alive?).
type ConnectOption func(*connectParams)

type connectParams struct {
	host      string
	port      int
	keepAlive time.Duration
}

// WithConnectHost overrides the broker host for this Connect call only.
func WithConnectHost(host string) ConnectOption {
	return func(p *connectParams) { p.host = host }
}

// WithConnectPort overrides the broker port for this Connect call only.
func WithConnectPort(port int) ConnectOption {
	return func(p *connectParams) { p.port = port }
}

// WithConnectKeepAlive overrides the keep-alive interval for this
// Connect call only.
func WithConnectKeepAlive(d time.Duration) ConnectOption {
	return func(p *connectParams) { p.keepAlive = d }
}

// Connect performs CONNECT/CONNACK, retrying with exponential back-off
// per spec.md section 4.5, and returns the session-present flag from
// CONNACK. cleanSession defaults to true in spirit of spec.md section 6;
// callers pass it explicitly here since Go has no default arguments.
func (c *Client) Connect(cleanSession bool, opts ...ConnectOption) (bool, error) {
	if c.state != stateDisconnected {
		return false, newStateError("connect", ErrAlreadyConnected)
	}

	params := connectParams{host: c.cfg.Host, port: c.cfg.Port, keepAlive: c.cfg.KeepAlive}
	for _, opt := range opts {
		opt(&params)
	}

	c.state = stateConnecting
	sessionPresent, err := c.connectWithRetry(cleanSession, params)
	if err != nil {
		c.state = stateDisconnected
		return false, err
	}
	c.state = stateConnected
	c.sess.reconnectAttempt = 0
	if c.cfg.OnConnect != nil {
		c.cfg.OnConnect(c, sessionPresent, wire.ConnAccepted)
	}
	return sessionPresent, nil
}

// connectWithRetry implements spec.md section 4.5's connect procedure:
// up to ConnectRetries attempts, with back-off applied only after
// failures attributable to the protocol or remote side.
func (c *Client) connectWithRetry(cleanSession bool, params connectParams) (bool, error) {
	var lastErr error
	backoffStep := 0
	for attempt := 1; attempt <= c.cfg.ConnectRetries; attempt++ {
		sessionPresent, err := c.connectOnce(cleanSession, params)
		if err == nil {
			return sessionPresent, nil
		}

		var connErr *ConnectError
		if ok := asConnectError(err, &connErr); ok && connErr.Fatal {
			return false, err
		}

		lastErr = err

		if isSocketTransient(err) {
			continue
		}
		backoffStep++
		if attempt < c.cfg.ConnectRetries {
			time.Sleep(connectBackoff(backoffStep))
		}
	}
	c.cfg.Logger.Warn("miniq: repeated connect failures", "attempts", c.cfg.ConnectRetries, "last_error", lastErr)
	return false, fmt.Errorf("%w: %v", ErrRepeatedConnectFailures, lastErr)
}

func asConnectError(err error, target **ConnectError) bool {
	return errors.As(err, target)
}

func isSocketTransient(err error) bool {
	return errors.Is(err, transport.ErrSocketUnavailable)
}

// connectOnce performs a single CONNECT/CONNACK attempt: acquire a
// socket, send CONNECT, await CONNACK within RecvTimeout.
func (c *Client) connectOnce(cleanSession bool, params connectParams) (bool, error) {
	sock, err := c.cfg.Dialer.Dial(params.host, params.port, c.tlsConfigOrNil())
	if err != nil {
		return false, err
	}
	c.sock = sock

	pkt := wire.Connect{
		ClientID:     c.cfg.ClientID,
		CleanSession: cleanSession,
		KeepAlive:    uint16(params.keepAlive / time.Second),
	}
	if c.will.set {
		pkt.HasWill = true
		pkt.WillTopic = c.will.topic
		pkt.WillMessage = c.will.payload
		pkt.WillQoS = c.will.qos
		pkt.WillRetain = c.will.retain
	}
	if c.cfg.HasUsername {
		pkt.HasUsername = true
		pkt.Username = c.cfg.Username
	}
	if c.cfg.HasPassword {
		pkt.HasPassword = true
		pkt.Password = c.cfg.Password
	}

	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		c.closeSocket()
		return false, err
	}
	if err := c.sendAll(buf.Bytes()); err != nil {
		c.closeSocket()
		return false, err
	}

	h, body, err := c.receiveOne(c.cfg.RecvTimeout)
	if err != nil {
		c.closeSocket()
		return false, err
	}
	if h == nil {
		c.closeSocket()
		return false, newTransportError("connect", fmt.Errorf("no CONNACK within %v", c.cfg.RecvTimeout))
	}
	if h.Type != wire.TypeConnAck {
		c.closeSocket()
		return false, newProtocolError("connect", fmt.Errorf("expected CONNACK, got packet type %d", h.Type))
	}
	ack, err := wire.DecodeConnAck(bytes.NewReader(body))
	if err != nil {
		c.closeSocket()
		return false, newProtocolError("connect", err)
	}
	if ack.ReturnCode != wire.ConnAccepted {
		c.closeSocket()
		return false, newConnectError(ack.ReturnCode)
	}

	c.sess.markOutboundActivity(time.Now())
	return ack.SessionPresent, nil
}

func (c *Client) tlsConfigOrNil() *tls.Config {
	if !c.cfg.TLS {
		return nil
	}
	if c.cfg.TLSConfig == nil {
		return &tls.Config{ServerName: c.cfg.Host}
	}
	return c.cfg.TLSConfig
}

// Disconnect writes DISCONNECT, closes the socket, and clears session
// subscriptions, per spec.md section 3's lifecycle.
func (c *Client) Disconnect() error {
	if c.state != stateConnected {
		return newStateError("disconnect", ErrNotConnected)
	}
	c.state = stateDisconnecting
	var buf bytes.Buffer
	wire.WriteDisconnect(&buf)
	sendErr := c.sendAll(buf.Bytes())
	c.closeSocket()
	c.sess.subscribed = make(map[string]bool)
	c.state = stateDisconnected
	if c.cfg.OnDisconnect != nil {
		c.cfg.OnDisconnect(c, nil)
	}
	return sendErr
}

// fail transitions to disconnected after a protocol or transport error
// encountered while connected, per spec.md section 7.
func (c *Client) fail(err error) {
	if c.state == stateDisconnected {
		return
	}
	c.closeSocket()
	c.state = stateDisconnected
	c.sess.subscribed = make(map[string]bool)
	if c.cfg.OnDisconnect != nil {
		c.cfg.OnDisconnect(c, err)
	}
}

func (c *Client) closeSocket() {
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
}

// Reconnect re-establishes the connection, optionally resubscribing
// (at QoS 0, per spec.md section 9's noted correctness gap) to the
// topics that were subscribed just before the internal disconnect.
func (c *Client) Reconnect(resubTopics bool) (bool, error) {
	wasConnected := c.state == stateConnected
	var snapshot []string
	if wasConnected {
		snapshot = c.sess.subscribedTopics()
		if err := c.Disconnect(); err != nil {
			return false, err
		}
	} else if c.state != stateDisconnected {
		return false, newStateError("reconnect", ErrAlreadyConnected)
	}

	sessionPresent, err := c.Connect(true)
	if err != nil {
		return false, err
	}

	if resubTopics {
		for _, topic := range snapshot {
			if err := c.Subscribe(Subscription{Topic: topic, QoS: wire.QoS0}); err != nil {
				return sessionPresent, err
			}
		}
	}
	return sessionPresent, nil
}

// Publish sends a PUBLISH. QoS 0 is fire-and-forget; QoS 1 blocks for
// the matching PUBACK within RecvTimeout, per spec.md section 4.5.
func (c *Client) Publish(topic string, payload []byte, retain bool, qos uint8) error {
	if c.state != stateConnected {
		return newStateError("publish", ErrNotConnected)
	}
	if err := validateQoS(qos); err != nil {
		return newStateError("publish", err)
	}
	if err := validatePublishTopic(topic); err != nil {
		return newStateError("publish", err)
	}

	var packetID uint16
	if qos > 0 {
		packetID = c.sess.allocatePacketID()
	}
	pkt := wire.Publish{Topic: topic, QoS: qos, Retain: retain, PacketID: packetID, Payload: payload}

	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		return newStateError("publish", err)
	}
	if err := c.sendAll(buf.Bytes()); err != nil {
		c.fail(err)
		return err
	}
	if qos == wire.QoS0 {
		return nil
	}

	deadline := time.Now().Add(c.cfg.RecvTimeout)
	err := c.awaitPacket(deadline, func(h wire.FixedHeader, body []byte) (bool, error) {
		if h.Type != wire.TypePubAck {
			return false, newProtocolError("publish", fmt.Errorf("unexpected packet type %d awaiting PUBACK", h.Type))
		}
		ack, derr := wire.DecodePubAck(bytes.NewReader(body))
		if derr != nil {
			return false, newProtocolError("publish", derr)
		}
		if ack.PacketID != packetID {
			return false, newProtocolError("publish", fmt.Errorf("puback id %d does not match outstanding %d", ack.PacketID, packetID))
		}
		return true, nil
	})
	if err != nil {
		c.fail(err)
		return err
	}
	if c.cfg.OnPublish != nil {
		c.cfg.OnPublish(c, topic, packetID)
	}
	return nil
}

// Subscription pairs a subscription pattern with a requested QoS, the
// normalized record spec.md section 9 describes for subscribe's
// string/tuple/list argument shapes.
type Subscription struct {
	Topic string
	QoS   uint8
}

// Subscribe issues one SUBSCRIBE packet covering every subscription
// and blocks for the matching SUBACK within RecvTimeout.
func (c *Client) Subscribe(subs ...Subscription) error {
	if c.state != stateConnected {
		return newStateError("subscribe", ErrNotConnected)
	}
	if len(subs) == 0 {
		return newStateError("subscribe", fmt.Errorf("no topics given"))
	}
	for _, s := range subs {
		if err := validateQoS(s.QoS); err != nil {
			return newStateError("subscribe", err)
		}
		if err := validateFilterTopic(s.Topic); err != nil {
			return newStateError("subscribe", err)
		}
	}

	packetID := c.sess.allocatePacketID()
	filters := make([]wire.TopicFilter, len(subs))
	for i, s := range subs {
		filters[i] = wire.TopicFilter{Topic: s.Topic, QoS: s.QoS}
	}
	pkt := wire.Subscribe{PacketID: packetID, Filters: filters}

	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		return newStateError("subscribe", err)
	}
	if err := c.sendAll(buf.Bytes()); err != nil {
		c.fail(err)
		return err
	}

	deadline := time.Now().Add(c.cfg.RecvTimeout)
	var ack wire.SubAck
	err := c.awaitPacket(deadline, func(h wire.FixedHeader, body []byte) (bool, error) {
		if h.Type != wire.TypeSubAck {
			return false, newProtocolError("subscribe", fmt.Errorf("unexpected packet type %d awaiting SUBACK", h.Type))
		}
		decoded, derr := wire.DecodeSubAck(h, bytes.NewReader(body))
		if derr != nil {
			return false, newProtocolError("subscribe", derr)
		}
		if decoded.PacketID != packetID {
			return false, newProtocolError("subscribe", fmt.Errorf("suback id %d does not match outstanding %d", decoded.PacketID, packetID))
		}
		ack = decoded
		return true, nil
	})
	if err != nil {
		c.fail(err)
		return err
	}
	if len(ack.ReturnCodes) != len(subs) {
		perr := newProtocolError("subscribe", fmt.Errorf("suback carries %d codes for %d topics", len(ack.ReturnCodes), len(subs)))
		c.fail(perr)
		return perr
	}

	var failed []string
	for i, s := range subs {
		code := ack.ReturnCodes[i]
		if code == wire.SubAckFailure {
			failed = append(failed, s.Topic)
			continue
		}
		c.sess.subscribed[s.Topic] = true
		if c.cfg.OnSubscribe != nil {
			c.cfg.OnSubscribe(c, s.Topic, code)
		}
	}
	if len(failed) > 0 {
		return &SubscribeError{Topics: failed}
	}
	return nil
}

// Unsubscribe issues one UNSUBSCRIBE packet and blocks for the
// matching UNSUBACK within RecvTimeout.
func (c *Client) Unsubscribe(topics ...string) error {
	if c.state != stateConnected {
		return newStateError("unsubscribe", ErrNotConnected)
	}
	if len(topics) == 0 {
		return newStateError("unsubscribe", fmt.Errorf("no topics given"))
	}
	for _, topic := range topics {
		if !c.sess.subscribed[topic] {
			return newStateError("unsubscribe", fmt.Errorf("%w: %s", ErrNotSubscribed, topic))
		}
	}

	packetID := c.sess.allocatePacketID()
	pkt := wire.Unsubscribe{PacketID: packetID, Topics: topics}

	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		return newStateError("unsubscribe", err)
	}
	if err := c.sendAll(buf.Bytes()); err != nil {
		c.fail(err)
		return err
	}

	deadline := time.Now().Add(c.cfg.RecvTimeout)
	err := c.awaitPacket(deadline, func(h wire.FixedHeader, body []byte) (bool, error) {
		if h.Type != wire.TypeUnsubAck {
			return false, newProtocolError("unsubscribe", fmt.Errorf("unexpected packet type %d awaiting UNSUBACK", h.Type))
		}
		decoded, derr := wire.DecodeUnsubAck(bytes.NewReader(body))
		if derr != nil {
			return false, newProtocolError("unsubscribe", derr)
		}
		if decoded.PacketID != packetID {
			return false, newProtocolError("unsubscribe", fmt.Errorf("unsuback id %d does not match outstanding %d", decoded.PacketID, packetID))
		}
		return true, nil
	})
	if err != nil {
		c.fail(err)
		return err
	}

	for _, topic := range topics {
		delete(c.sess.subscribed, topic)
		if c.cfg.OnUnsubscribe != nil {
			c.cfg.OnUnsubscribe(c, topic, packetID)
		}
	}
	return nil
}

// Ping sends PINGREQ and waits for PINGRESP within KeepAlive seconds,
// dispatching any intervening inbound PUBLISH. It returns the wire
// packet types of the non-PUBLISH packets read during the wait, which
// on success ends with PINGRESP; PUBLISH packets dispatched during the
// wait are not included in the list.
func (c *Client) Ping() ([]uint8, error) {
	if c.state != stateConnected {
		return nil, newStateError("ping", ErrNotConnected)
	}
	var buf bytes.Buffer
	wire.WritePingReq(&buf)
	if err := c.sendAll(buf.Bytes()); err != nil {
		c.fail(err)
		return nil, err
	}

	var observed []uint8
	deadline := time.Now().Add(c.cfg.KeepAlive)
	err := c.awaitPacket(deadline, func(h wire.FixedHeader, _ []byte) (bool, error) {
		observed = append(observed, h.Type)
		if h.Type != wire.TypePingResp {
			return false, newProtocolError("ping", fmt.Errorf("unexpected packet type %d awaiting PINGRESP", h.Type))
		}
		return true, nil
	})
	if err != nil {
		c.fail(err)
		return observed, err
	}
	return observed, nil
}

// Loop is the cooperative pump for callers that do not drive a
// dedicated thread: it returns after at most timeout, having emitted a
// PINGREQ if the keep-alive window elapsed, and dispatched whatever
// packets arrived in the meantime. Per spec.md section 4.5, timeout
// must be >= SocketTimeout.
func (c *Client) Loop(timeout time.Duration) ([]uint8, error) {
	if c.state != stateConnected {
		return nil, newStateError("loop", ErrNotConnected)
	}
	if timeout < c.cfg.SocketTimeout {
		return nil, newStateError("loop", fmt.Errorf("loop timeout %v must be >= socket_timeout %v", timeout, c.cfg.SocketTimeout))
	}

	if time.Since(c.sess.lastSent) >= c.cfg.KeepAlive {
		if _, err := c.Ping(); err != nil {
			return nil, err
		}
	}

	var observed []uint8
	deadline := time.Now().Add(timeout)
	for {
		h, body, err := c.receiveOne(time.Until(deadline))
		if err != nil {
			c.fail(err)
			return observed, err
		}
		if h == nil {
			return observed, nil
		}
		observed = append(observed, h.Type)
		if h.Type == wire.TypePublish {
			if err := c.handlePublish(*h, body); err != nil {
				c.fail(err)
				return observed, err
			}
			continue
		}
		if h.Type == wire.TypePingResp {
			continue
		}
		// Other control packets arriving unsolicited during Loop are
		// surfaced to the caller by type but do not stop the pump.
		if time.Now().After(deadline) {
			return observed, nil
		}
	}
}

// sendAll writes p to the socket, retrying on short writes in
// socket_timeout-bounded steps until p is fully written or the overall
// recv_timeout elapses (a fatal condition), mirroring recvExact and
// satisfying spec.md's "every socket read and write may suspend for up
// to socket_timeout" for the write path too.
func (c *Client) sendAll(p []byte) error {
	deadline := time.Now().Add(c.cfg.RecvTimeout)
	total := 0
	for total < len(p) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return newTransportError("send", fmt.Errorf("send timeout after %v", c.cfg.RecvTimeout))
		}
		step := c.cfg.SocketTimeout
		if remaining < step {
			step = remaining
		}
		if err := c.sock.SetTimeout(step); err != nil {
			return newTransportError("send", err)
		}
		n, err := c.sock.Send(p[total:])
		total += n
		if err != nil {
			if isTimeoutErr(err) {
				continue
			}
			return newTransportError("send", err)
		}
	}
	c.sess.markOutboundActivity(time.Now())
	return nil
}

// recvFirstByte blocks, in socket_timeout-bounded steps, until one
// byte arrives or deadline passes. Returning (0, nil) means nothing
// arrived before deadline, which is not an error: it is how Loop and
// the keep-alive check distinguish "idle" from "broken".
func (c *Client) recvFirstByte(buf []byte, deadline time.Time) (int, error) {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil
		}
		step := c.cfg.SocketTimeout
		if remaining < step {
			step = remaining
		}
		if err := c.sock.SetTimeout(step); err != nil {
			return 0, err
		}
		n, err := c.sock.RecvInto(buf)
		if n > 0 {
			return n, nil
		}
		if err != nil {
			if isTimeoutErr(err) {
				continue
			}
			return 0, err
		}
	}
}

// recvExact reads exactly len(buf) bytes, looping over socket_timeout
// steps until buf is full or the overall timeout elapses (a fatal
// condition), per spec.md section 5.
func (c *Client) recvExact(buf []byte, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	total := 0
	for total < len(buf) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("receive timeout after %v", timeout)
		}
		step := c.cfg.SocketTimeout
		if remaining < step {
			step = remaining
		}
		if err := c.sock.SetTimeout(step); err != nil {
			return err
		}
		n, err := c.sock.RecvInto(buf[total:])
		total += n
		if err != nil {
			if isTimeoutErr(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// deadlineReader adapts recvExact to io.Reader for wire.DecodeRemainingLength.
type deadlineReader struct {
	c       *Client
	timeout time.Duration
}

func (r deadlineReader) Read(p []byte) (int, error) {
	if err := r.c.recvExact(p, r.timeout); err != nil {
		return 0, err
	}
	return len(p), nil
}

// receiveOne reads and fully decodes the next inbound packet. A nil
// *wire.FixedHeader with a nil error means nothing arrived before
// firstByteTimeout elapsed (the idle case); once a first byte is
// observed, the rest of the packet must complete within RecvTimeout.
func (c *Client) receiveOne(firstByteTimeout time.Duration) (*wire.FixedHeader, []byte, error) {
	var fb [1]byte
	n, err := c.recvFirstByte(fb[:], time.Now().Add(firstByteTimeout))
	if err != nil {
		return nil, nil, newTransportError("receive", err)
	}
	if n == 0 {
		return nil, nil, nil
	}

	remaining, err := wire.DecodeRemainingLength(deadlineReader{c, c.cfg.RecvTimeout})
	if err != nil {
		return nil, nil, newProtocolError("receive", err)
	}
	header := wire.FixedHeader{Type: fb[0] >> 4, Flags: fb[0] & 0x0F, RemainingLength: remaining}

	body := make([]byte, remaining)
	if err := c.recvExact(body, c.cfg.RecvTimeout); err != nil {
		return nil, nil, newTransportError("receive", err)
	}
	return &header, body, nil
}

// awaitPacket loops, reading inbound packets until accept reports done
// or the deadline elapses, dispatching any intervening PUBLISH inline,
// per spec.md section 4.5's request/response exchange semantics.
func (c *Client) awaitPacket(deadline time.Time, accept func(h wire.FixedHeader, body []byte) (bool, error)) error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return newTransportError("await", fmt.Errorf("receive timeout waiting for acknowledgment"))
		}
		h, body, err := c.receiveOne(remaining)
		if err != nil {
			return err
		}
		if h == nil {
			continue
		}
		if h.Type == wire.TypePublish {
			if err := c.handlePublish(*h, body); err != nil {
				return err
			}
			continue
		}
		done, err := accept(*h, body)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// handlePublish decodes an inbound PUBLISH, dispatches it to the
// subscription table, and acks it if QoS 1. An inbound QoS-2 PUBLISH is
// a fatal protocol error, per spec.md section 4.5 (Non-goal: no QoS 2).
func (c *Client) handlePublish(h wire.FixedHeader, body []byte) error {
	pub, err := wire.DecodePublish(h, bytes.NewReader(body))
	if err != nil {
		return newProtocolError("publish-dispatch", err)
	}
	if pub.QoS == wire.QoS2 {
		return newProtocolError("publish-dispatch", fmt.Errorf("received unsupported QoS 2 publish"))
	}
	c.subs.dispatch(c, pub.Topic, pub.Payload)
	if pub.QoS == wire.QoS1 {
		var buf bytes.Buffer
		ack := wire.PubAck{PacketID: pub.PacketID}
		if _, err := ack.WriteTo(&buf); err != nil {
			return newProtocolError("publish-dispatch", err)
		}
		if err := c.sendAll(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func validateQoS(qos uint8) error {
	if qos != wire.QoS0 && qos != wire.QoS1 {
		return fmt.Errorf("%w: %d (only QoS 0 and 1 are supported)", ErrInvalidQoS, qos)
	}
	return nil
}

func validatePublishTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic must not be empty", ErrInvalidTopic)
	}
	if len(topic) > wire.MaxStringLength {
		return fmt.Errorf("%w: topic length %d exceeds %d bytes", ErrInvalidTopic, len(topic), wire.MaxStringLength)
	}
	for i := 0; i < len(topic); i++ {
		if topic[i] == '+' || topic[i] == '#' {
			return fmt.Errorf("%w: publish topic %q must not contain wildcards", ErrInvalidTopic, topic)
		}
	}
	return nil
}

func validateFilterTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic filter must not be empty", ErrInvalidTopic)
	}
	if len(topic) > wire.MaxStringLength {
		return fmt.Errorf("%w: topic filter length %d exceeds %d bytes", ErrInvalidTopic, len(topic), wire.MaxStringLength)
	}
	return nil
}
