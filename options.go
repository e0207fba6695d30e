package miniq

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/coreiot/miniq/transport"
)

// Default port numbers, per spec.md section 3/6. An explicit WithPort
// overrides both.
const (
	DefaultPlaintextPort = 1883
	DefaultTLSPort       = 8883
)

// Default timing parameters, per spec.md section 6.
const (
	DefaultKeepAlive     = 60 * time.Second
	DefaultRecvTimeout   = 10 * time.Second
	DefaultSocketTimeout = 1 * time.Second
	DefaultConnectRetries = 5
)

// config holds every constructor-time setting, built from the
// ClientOptions passed to New. validate fills in the port and client ID
// when they are left unset; after New returns, nothing changes it, per
// spec.md section 3.
type config struct {
	Host string
	Port int // 0 means "not set"; resolved against TLS in New.

	Username    string
	HasUsername bool
	Password    string
	HasPassword bool

	ClientID          string
	clientIDGenerated bool

	KeepAlive     time.Duration
	SocketTimeout time.Duration
	RecvTimeout   time.Duration
	ConnectRetries int

	UseBinaryMode bool

	TLS       bool
	TLSConfig *tls.Config

	Dialer transport.Dialer

	UserData any

	Logger *slog.Logger

	OnConnect     ConnectHandler
	OnDisconnect  DisconnectHandler
	OnPublish     PublishHandler
	OnSubscribe   SubscribeHandler
	OnUnsubscribe UnsubscribeHandler
	OnMessage     MessageHandler
}

// Callback signatures, per spec.md section 6. The opaque user-data
// handle passed at construction is not threaded as a positional
// parameter (it is never inspected by the core); callbacks that need
// it call Client.UserData.
type (
	ConnectHandler     func(c *Client, sessionPresent bool, returnCode uint8)
	DisconnectHandler  func(c *Client, err error)
	PublishHandler     func(c *Client, topic string, packetID uint16)
	SubscribeHandler   func(c *Client, topic string, qos uint8)
	UnsubscribeHandler func(c *Client, topic string, packetID uint16)
)

// ClientOption configures a Client at construction time, following the
// functional-options idiom of gonzalop/mq's options.go.
type ClientOption func(*config)

// WithPort overrides the default port (1883 plaintext, 8883 TLS).
func WithPort(port int) ClientOption {
	return func(c *config) { c.Port = port }
}

// WithCredentials sets the username and password used during CONNECT.
// Password must be at most wire.MaxStringLength bytes once UTF-8
// encoded; this is validated in New.
func WithCredentials(username, password string) ClientOption {
	return func(c *config) {
		c.Username, c.HasUsername = username, true
		c.Password, c.HasPassword = password, true
	}
}

// WithClientID sets the client identifier. If not called, New
// generates one (see client_id.go) and validates it per invariant I3.
func WithClientID(id string) ClientOption {
	return func(c *config) { c.ClientID = id }
}

// WithTLS requests a TLS-wrapped socket, defaulting the port to 8883
// unless WithPort overrides it. A nil cfg uses a *tls.Config whose only
// set field is ServerName, taken from the broker host given to New
// (system root CAs).
func WithTLS(cfg *tls.Config) ClientOption {
	return func(c *config) {
		c.TLS = true
		c.TLSConfig = cfg
	}
}

// WithKeepAlive sets the MQTT keep-alive interval (default 60s). Must
// be strictly less than 65535 seconds (invariant I4).
func WithKeepAlive(d time.Duration) ClientOption {
	return func(c *config) { c.KeepAlive = d }
}

// WithSocketTimeout bounds each individual socket read (default 1s).
func WithSocketTimeout(d time.Duration) ClientOption {
	return func(c *config) { c.SocketTimeout = d }
}

// WithRecvTimeout bounds how long a request/response exchange waits
// for its acknowledgment (default 10s). Must be strictly greater than
// the socket timeout (invariant I5).
func WithRecvTimeout(d time.Duration) ClientOption {
	return func(c *config) { c.RecvTimeout = d }
}

// WithConnectRetries sets how many CONNECT attempts Connect makes
// before giving up (default 5, must be >= 1).
func WithConnectRetries(n int) ClientOption {
	return func(c *config) { c.ConnectRetries = n }
}

// WithBinaryMode sets the use_binary_mode flag (default false). The
// flag is stored but inert: callbacks receive inbound payloads as raw
// []byte whether or not it is set, and this client never converts a
// payload to text.
func WithBinaryMode(binary bool) ClientOption {
	return func(c *config) { c.UseBinaryMode = binary }
}

// WithDialer overrides the default net.Dial-based transport.Dialer,
// matching spec.md section 6's "socket_pool" constructor option.
func WithDialer(d transport.Dialer) ClientOption {
	return func(c *config) { c.Dialer = d }
}

// WithUserData sets the opaque value threaded through every callback
// via Client.UserData. The core never inspects it.
func WithUserData(v any) ClientOption {
	return func(c *config) { c.UserData = v }
}

// WithLogger sets the structured logger used for connection lifecycle
// events. Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *config) { c.Logger = l }
}

// WithOnConnect registers the callback invoked after a successful
// CONNECT/CONNACK exchange.
func WithOnConnect(fn ConnectHandler) ClientOption {
	return func(c *config) { c.OnConnect = fn }
}

// WithOnDisconnect registers the callback invoked when the client
// transitions to disconnected, whether by request or by error.
func WithOnDisconnect(fn DisconnectHandler) ClientOption {
	return func(c *config) { c.OnDisconnect = fn }
}

// WithOnPublish registers the callback invoked after a QoS-1 publish
// is acknowledged.
func WithOnPublish(fn PublishHandler) ClientOption {
	return func(c *config) { c.OnPublish = fn }
}

// WithOnSubscribe registers the callback invoked once per topic after
// a SUBSCRIBE is acknowledged.
func WithOnSubscribe(fn SubscribeHandler) ClientOption {
	return func(c *config) { c.OnSubscribe = fn }
}

// WithOnUnsubscribe registers the callback invoked once per topic
// after an UNSUBSCRIBE is acknowledged.
func WithOnUnsubscribe(fn UnsubscribeHandler) ClientOption {
	return func(c *config) { c.OnUnsubscribe = fn }
}

// WithOnMessage registers the global handler invoked when an inbound
// PUBLISH matches no registered topic pattern, per spec.md section 4.2.
func WithOnMessage(fn MessageHandler) ClientOption {
	return func(c *config) { c.OnMessage = fn }
}

func defaultConfig(host string) *config {
	return &config{
		Host:          host,
		KeepAlive:     DefaultKeepAlive,
		SocketTimeout: DefaultSocketTimeout,
		RecvTimeout:   DefaultRecvTimeout,
		ConnectRetries: DefaultConnectRetries,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dialer:        transport.NetDialer{Timeout: DefaultSocketTimeout},
	}
}

// validate enforces the constructor invariants from spec.md section 3
// (I3, I4, I5) and fills in defaults that depend on other fields (port,
// client ID).
func (c *config) validate() error {
	if c.Port == 0 {
		if c.TLS {
			c.Port = DefaultTLSPort
		} else {
			c.Port = DefaultPlaintextPort
		}
	}

	if c.ClientID == "" {
		id, err := generateClientID()
		if err != nil {
			return err
		}
		c.ClientID = id
		c.clientIDGenerated = true
	}
	if err := validateClientID(c.ClientID, c.clientIDGenerated); err != nil {
		return err
	}

	if c.KeepAlive < 0 || c.KeepAlive >= 65535*time.Second {
		return fmt.Errorf("miniq: keep_alive must be < 65535 seconds")
	}

	if c.RecvTimeout <= c.SocketTimeout {
		return fmt.Errorf("miniq: recv_timeout (%v) must be strictly greater than socket_timeout (%v)", c.RecvTimeout, c.SocketTimeout)
	}

	if c.ConnectRetries < 1 {
		return fmt.Errorf("miniq: connect_retries must be >= 1")
	}

	if c.HasPassword && len(c.Password) > 65535 {
		return fmt.Errorf("miniq: password length %d exceeds 65535 bytes", len(c.Password))
	}

	return nil
}
