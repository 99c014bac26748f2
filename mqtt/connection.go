package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Codes reported in Status when the failure did not come from the broker.
const (
	CodeConnectError byte = 254
	CodeClientError  byte = 255
)

var (
	ErrMissingURI     = errors.New("MQTT uri is required")
	ErrUnsupportedURI = errors.New("MQTT uri scheme is not supported")
)

type Message struct {
	Topic    string
	Payload  string
	Received time.Time
}

type Status struct {
	Reason    string
	Code      byte
	Err       error
	Connected bool
}

type Options struct {
	URI               string
	Username          string
	Password          string
	ClientID          string
	Subscriptions     []string
	QoS               byte
	KeepAlive         uint16
	ConnectRetryDelay time.Duration

	// Messages receives every publish from the subscriptions. Sends block
	// until the consumer is ready or the dial context is done.
	Messages chan<- Message
	// Statuses receives connection lifecycle changes. Sends never block.
	Statuses chan<- Status
}

// Connection is a long lived broker session. It reconnects on its own and
// resubscribes every time the connection comes back up.
type Connection struct {
	manager   *autopaho.ConnectionManager
	clientID  string
	qos       byte
	connected atomic.Bool
}

func ParseURI(uri string) (*url.URL, error) {
	if uri == "" {
		return nil, ErrMissingURI
	}
	serverUrl, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse MQTT uri %q: %w", uri, err)
	}
	switch serverUrl.Scheme {
	case "mqtt", "tcp", "mqtts", "ssl", "tls", "ws", "wss":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, serverUrl.Scheme)
	}
	if serverUrl.Host == "" {
		return nil, fmt.Errorf("MQTT uri %q has no host", uri)
	}
	return serverUrl, nil
}

func NewClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Dial starts the connection manager. It returns as soon as the manager is
// running; use AwaitConnection to wait for the first successful connect.
func Dial(ctx context.Context, options Options) (*Connection, error) {
	serverUrl, err := ParseURI(options.URI)
	if err != nil {
		return nil, err
	}

	clientID := options.ClientID
	if clientID == "" {
		clientID = NewClientID("doorbell")
	}
	keepAlive := options.KeepAlive
	if keepAlive == 0 {
		keepAlive = 60
	}
	retryDelay := options.ConnectRetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second * 5
	}

	connection := &Connection{clientID: clientID, qos: options.QoS}

	clientConfig := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverUrl},
		KeepAlive:                     keepAlive,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		ConnectRetryDelay:             retryDelay,
		OnConnectionUp: func(connectionManager *autopaho.ConnectionManager, connectionAck *paho.Connack) {
			connection.connected.Store(true)

			response := ""
			if connectionAck.Properties != nil {
				response = connectionAck.Properties.ResponseInfo
			}
			log.Info().
				Str("event", "OnConnectionUp").
				Str("client_id", clientID).
				Str("response", response).
				Msg("Connected to MQTT broker")

			connection.subscribe(ctx, connectionManager, options.Subscriptions)
			notify(options.Statuses, Status{Connected: true})
		},
		OnConnectError: func(err error) {
			connection.connected.Store(false)
			log.Error().
				Str("error", err.Error()).
				Str("event", "OnConnectError").
				Msg(fmt.Sprintf("MQTT Connection error: %v", err))
			notify(options.Statuses, Status{Err: err, Code: CodeConnectError})
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(received paho.PublishReceived) (bool, error) {
					if options.Messages == nil {
						return true, nil
					}
					message := Message{
						Topic:    received.Packet.Topic,
						Payload:  string(received.Packet.Payload),
						Received: time.Now(),
					}
					select {
					case options.Messages <- message:
					case <-ctx.Done():
					}
					return true, nil
				},
			},
			OnClientError: func(err error) {
				connection.connected.Store(false)
				log.Error().
					Str("error", err.Error()).
					Str("event", "OnClientError").
					Msg(fmt.Sprintf("MQTT Client error: %v", err))
				notify(options.Statuses, Status{Err: err, Code: CodeClientError})
			},
			OnServerDisconnect: func(disconnect *paho.Disconnect) {
				connection.connected.Store(false)
				reason := ""
				if disconnect.Properties != nil {
					reason = disconnect.Properties.ReasonString
				}
				log.Warn().
					Str("event", "OnServerDisconnect").
					Str("reason", reason).
					Uint8("reason_code", disconnect.ReasonCode).
					Msg("MQTT server requested disconnect")
				notify(options.Statuses, Status{Reason: reason, Code: disconnect.ReasonCode})
			},
		},
	}
	if options.Username != "" {
		clientConfig.ConnectUsername = options.Username
	}
	if options.Password != "" {
		clientConfig.ConnectPassword = []byte(options.Password)
	}

	manager, err := autopaho.NewConnection(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("start MQTT connection manager: %w", err)
	}
	connection.manager = manager

	return connection, nil
}

func (connection *Connection) subscribe(ctx context.Context, connectionManager *autopaho.ConnectionManager, topics []string) {
	if len(topics) == 0 {
		return
	}
	subscriptions := make([]paho.SubscribeOptions, 0, len(topics))
	for _, topic := range topics {
		subscriptions = append(subscriptions, paho.SubscribeOptions{Topic: topic, QoS: connection.qos})
	}
	if _, err := connectionManager.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: subscriptions,
	}); err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "MQTTSubscribe").
			Strs("topics", topics).
			Msg(fmt.Sprintf("MQTT failed to subscribe: %v", err))
		return
	}
	log.Info().
		Str("event", "MQTTSubscribe").
		Strs("topics", topics).
		Msg("Subscribed to topics")
}

func notify(statuses chan<- Status, status Status) {
	if statuses == nil {
		return
	}
	select {
	case statuses <- status:
	default:
	}
}

func (connection *Connection) AwaitConnection(ctx context.Context) error {
	return connection.manager.AwaitConnection(ctx)
}

// Publish sends payload verbatim. With QoS 0 nothing confirms delivery; only
// failures the client notices before the packet leaves are returned.
func (connection *Connection) Publish(ctx context.Context, topic string, payload string) error {
	if _, err := connection.manager.Publish(ctx, &paho.Publish{
		QoS:     connection.qos,
		Topic:   topic,
		Payload: []byte(payload),
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (connection *Connection) Connected() bool {
	return connection.connected.Load()
}

func (connection *Connection) ClientID() string {
	return connection.clientID
}

func (connection *Connection) Disconnect(ctx context.Context) error {
	return connection.manager.Disconnect(ctx)
}

func (connection *Connection) Done() <-chan struct{} {
	return connection.manager.Done()
}
