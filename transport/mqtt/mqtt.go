// Package mqtt provides an MQTT push feed for chat messages.
//
// The server publishes each created message as JSON to a per-room topic
// in the format "{prefix}/rooms/{roomID}". This feed connects to any
// standard MQTT broker, subscribes to the rooms it is asked to follow,
// and hands decoded events to the handler. It is purely additive: the
// synchronizer's append/normalize contract is the same with or without
// it, and polling keeps working alongside it (duplicate ids are dropped
// by the synchronizer).
package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/transport"
)

// Compile-time interface check.
var _ transport.PushFeed = (*Feed)(nil)

const (
	// DefaultTopicPrefix is the default MQTT topic prefix for message events.
	DefaultTopicPrefix = "workorder"
)

// Config holds the configuration for an MQTT push feed.
type Config struct {
	// Broker is the MQTT broker URL (e.g., "tcp://broker.example.com:1883").
	Broker string
	// Username for MQTT authentication. Leave empty if not required.
	Username string
	// Password for MQTT authentication. Leave empty if not required.
	Password string
	// UseTLS enables TLS for the MQTT connection.
	UseTLS bool
	// ClientID is the MQTT client identifier. If empty, a random one is generated.
	ClientID string
	// TopicPrefix is the MQTT topic prefix (default: "workorder").
	TopicPrefix string
	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Feed implements transport.PushFeed over MQTT.
type Feed struct {
	cfg          Config
	client       paho.Client
	log          *slog.Logger
	mu           sync.RWMutex
	connected    bool
	rooms        map[core.RoomID]struct{}
	pushHandler  transport.PushHandler
	stateHandler transport.StateHandler
}

// New creates a new MQTT push feed with the given configuration.
func New(cfg Config) *Feed {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Feed{
		cfg:   cfg,
		log:   cfg.Logger.WithGroup("mqtt"),
		rooms: make(map[core.RoomID]struct{}),
	}
}

// Start connects to the MQTT broker and begins listening for events.
func (f *Feed) Start(ctx context.Context) error {
	if f.cfg.Broker == "" {
		return errors.New("broker URL is required")
	}

	clientID := f.cfg.ClientID
	if clientID == "" {
		clientID = "workorder-" + randomString(16)
	}

	opts := paho.NewClientOptions().
		AddBroker(f.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(2 * time.Minute).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetOnConnectHandler(f.onConnected).
		SetConnectionLostHandler(f.onConnectionLost).
		SetReconnectingHandler(f.onReconnecting)

	if f.cfg.Username != "" {
		opts.SetUsername(f.cfg.Username)
	}
	if f.cfg.Password != "" {
		opts.SetPassword(f.cfg.Password)
	}
	if f.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
	}

	f.client = paho.NewClient(opts)

	token := f.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return errors.New("connection timeout")
	}
	if token.Error() != nil {
		return fmt.Errorf("connecting to broker: %w", token.Error())
	}

	return nil
}

// Stop gracefully disconnects from the MQTT broker.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		f.client.Disconnect(1000)
		f.connected = false
	}
	return nil
}

// IsConnected returns true if the feed is connected to the broker.
func (f *Feed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected && f.client != nil && f.client.IsConnected()
}

// SetPushHandler sets the callback for incoming message events.
func (f *Feed) SetPushHandler(fn transport.PushHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushHandler = fn
}

// SetStateHandler sets the callback for feed state changes.
func (f *Feed) SetStateHandler(fn transport.StateHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateHandler = fn
}

// Subscribe starts delivery of events for the given room. The
// subscription is remembered and re-established after a reconnect.
func (f *Feed) Subscribe(roomID core.RoomID) error {
	if roomID.IsZero() {
		return errors.New("room id is required")
	}

	f.mu.Lock()
	f.rooms[roomID] = struct{}{}
	f.mu.Unlock()

	if !f.IsConnected() {
		// Remembered; subscribed on connect.
		return nil
	}
	topic := f.roomTopic(roomID)
	f.client.Subscribe(topic, 0, f.handleMessage)
	f.log.Debug("subscribed to room topic", "topic", topic)
	return nil
}

// Unsubscribe stops delivery of events for the given room.
func (f *Feed) Unsubscribe(roomID core.RoomID) error {
	f.mu.Lock()
	delete(f.rooms, roomID)
	f.mu.Unlock()

	if !f.IsConnected() {
		return nil
	}
	token := f.client.Unsubscribe(f.roomTopic(roomID))
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("timeout unsubscribing from MQTT")
	}
	return token.Error()
}

func (f *Feed) roomTopic(roomID core.RoomID) string {
	return f.cfg.TopicPrefix + "/rooms/" + roomID.String()
}

// roomFromTopic extracts the room id from "{prefix}/rooms/{roomID}".
func (f *Feed) roomFromTopic(topic string) core.RoomID {
	rest, ok := strings.CutPrefix(topic, f.cfg.TopicPrefix+"/rooms/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return core.RoomID(rest)
}

func (f *Feed) handleMessage(_ paho.Client, message paho.Message) {
	f.mu.RLock()
	handler := f.pushHandler
	f.mu.RUnlock()

	if handler == nil {
		return
	}

	roomID := f.roomFromTopic(message.Topic())
	if roomID.IsZero() {
		f.log.Debug("ignoring event on unexpected topic", "topic", message.Topic())
		return
	}

	var msg core.Message
	if err := json.Unmarshal(message.Payload(), &msg); err != nil {
		f.log.Debug("failed to decode message event", "error", err)
		return
	}
	if msg.RoomID.IsZero() {
		msg.RoomID = roomID
	}

	handler(transport.PushEvent{RoomID: roomID, Message: msg})
}

func (f *Feed) onConnected(_ paho.Client) {
	f.mu.Lock()
	f.connected = true
	handler := f.stateHandler
	rooms := make([]core.RoomID, 0, len(f.rooms))
	for id := range f.rooms {
		rooms = append(rooms, id)
	}
	f.mu.Unlock()

	for _, id := range rooms {
		topic := f.roomTopic(id)
		f.client.Subscribe(topic, 0, f.handleMessage)
		f.log.Debug("subscribed to room topic", "topic", topic)
	}
	f.log.Info("connected to MQTT broker", "broker", f.cfg.Broker)

	if handler != nil {
		handler(f, transport.EventConnected)
	}
}

func (f *Feed) onConnectionLost(_ paho.Client, err error) {
	f.mu.Lock()
	f.connected = false
	handler := f.stateHandler
	f.mu.Unlock()

	f.log.Error("MQTT connection lost", "error", err)

	if handler != nil {
		handler(f, transport.EventDisconnected)
	}
}

func (f *Feed) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	f.mu.RLock()
	handler := f.stateHandler
	f.mu.RUnlock()

	f.log.Info("reconnecting to MQTT broker")

	if handler != nil {
		handler(f, transport.EventReconnecting)
	}
}

func randomString(n int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
