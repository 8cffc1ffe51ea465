package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/f0x0/foxcontrol/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the FoxControl status mirror.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	connected bool
	connMu    sync.RWMutex

	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex
}

// Connect establishes a connection to the MQTT broker, configures the
// Last Will and announces online on the status topic.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	c := &Client{cfg: cfg}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	if err := c.PublishString(Topics{}.SystemStatus(), onlinePayload(cfg.Broker.ClientID), 1, true); err != nil {
		c.client.Disconnect(defaultDisconnectQuiesce)
		return nil, fmt.Errorf("announcing online: %w", err)
	}

	return c, nil
}

// handleConnect runs on every (re)connection, including the first.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	// Re-assert presence after a reconnect; the LWT may have fired.
	_ = c.PublishString(Topics{}.SystemStatus(), onlinePayload(c.cfg.Broker.ClientID), 1, true)

	c.callbackMu.RLock()
	cb := c.onConnect
	c.callbackMu.RUnlock()
	if cb != nil {
		cb()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.callbackMu.RLock()
	cb := c.onDisconnect
	c.callbackMu.RUnlock()
	if cb != nil {
		cb(err)
	}
}

// SetOnConnect registers a callback for (re)connection events.
func (c *Client) SetOnConnect(cb func()) {
	c.callbackMu.Lock()
	c.onConnect = cb
	c.callbackMu.Unlock()
}

// SetOnDisconnect registers a callback for connection-loss events.
func (c *Client) SetOnDisconnect(cb func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = cb
	c.callbackMu.Unlock()
}

// IsConnected reports the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// HealthCheck verifies the broker connection is alive.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close announces offline and disconnects gracefully.
func (c *Client) Close() error {
	if c.IsConnected() {
		_ = c.PublishString(
			Topics{}.SystemStatus(),
			offlinePayload(c.cfg.Broker.ClientID, "graceful_shutdown"),
			1, true,
		)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()
	return nil
}
