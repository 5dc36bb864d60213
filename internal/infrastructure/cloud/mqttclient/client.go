package mqttclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/cenkalti/backoff/v5"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
)

// Client is the MQTT-backed implementation of ports.IotClient and ports.DispenseHardware.
type Client struct {
	cfg Config
	log logger.Logger

	mu       sync.Mutex
	handlers map[string]ports.TopicHandler
	client   mqtt.Client
}

func New(cfg Config, log logger.Logger) *Client {
	return &Client{cfg: cfg, log: log.Named("iot.mqtt"), handlers: make(map[string]ports.TopicHandler)}
}

// Subscribe registers a handler for topic. If the client is already connected the subscription
// is issued immediately; otherwise it's applied at connect time in onConnect, mirroring the
// source's "subscribe to all configured topics in on_connect".
func (c *Client) Subscribe(topic ports.InboundTopic, handler ports.TopicHandler) error {
	c.mu.Lock()
	c.handlers[string(topic)] = handler
	cli := c.client
	c.mu.Unlock()

	if cli != nil && cli.IsConnected() {
		tok := cli.Subscribe(string(topic), 1, c.onMessage)
		tok.Wait()
		return tok.Error()
	}
	return nil
}

// Start connects to the broker, retrying with exponential backoff up to cfg.ConnectAttempts
// times before giving up (Open Question #3).
func (c *Client) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", c.cfg.Endpoint, c.cfg.Port)).
		SetClientID(c.cfg.DeviceID).
		SetKeepAlive(c.cfg.KeepAlive).
		SetAutoReconnect(true).
		SetConnectionLostHandler(c.onDisconnect)

	tlsCfg, err := c.buildTLSConfig()
	if err != nil {
		return shared.WrapDbBroken("mqtt tls setup", err)
	}
	opts.SetTLSConfig(tlsCfg)
	opts.OnConnect = c.onConnect

	cli := mqtt.NewClient(opts)

	_, err = backoff.Retry(context.Background(), func() (struct{}, error) {
		tok := cli.Connect()
		tok.Wait()
		if tok.Error() != nil {
			c.log.Warn("mqtt connect attempt failed", "error", tok.Error())
			return struct{}{}, tok.Error()
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(uint(c.cfg.ConnectAttempts)))
	if err != nil {
		c.log.Critical("failed to establish mqtt connection after all attempts", "attempts", c.cfg.ConnectAttempts)
		return fmt.Errorf("%w: mqtt connect exhausted %d attempts: %w", shared.ErrModuleStartup, c.cfg.ConnectAttempts, err)
	}

	c.mu.Lock()
	c.client = cli
	c.mu.Unlock()
	return nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	cli := c.client
	c.mu.Unlock()
	if cli != nil {
		cli.Disconnect(250)
	}
	return nil
}

// RequestDispense implements ports.DispenseHardware: publishes a dispense command for one
// slot on this device's own dispense-request topic.
func (c *Client) RequestDispense(ctx context.Context, unitID, location, variantID int) error {
	c.mu.Lock()
	cli := c.client
	c.mu.Unlock()
	if cli == nil || !cli.IsConnected() {
		return fmt.Errorf("%w: mqtt client not connected", shared.ErrCloudConnection)
	}
	payload, err := json.Marshal(map[string]any{"unitId": unitID, "location": location, "variantId": variantID})
	if err != nil {
		return err
	}
	tok := cli.Publish(c.cfg.DispenseTopic, 1, false, payload)
	tok.Wait()
	if tok.Error() != nil {
		return fmt.Errorf("%w: publish dispense request: %w", shared.ErrCloudConnection, tok.Error())
	}
	return nil
}

func (c *Client) onConnect(cli mqtt.Client) {
	c.log.Info("mqtt connected")
	c.mu.Lock()
	handlers := make(map[string]ports.TopicHandler, len(c.handlers))
	for t, h := range c.handlers {
		handlers[t] = h
	}
	c.mu.Unlock()
	for topic := range handlers {
		tok := cli.Subscribe(topic, 1, c.onMessage)
		tok.Wait()
		if tok.Error() != nil {
			c.log.Error("failed to subscribe to topic", "topic", topic, "error", tok.Error())
		} else {
			c.log.Info("subscribed to topic", "topic", topic)
		}
	}
}

func (c *Client) onDisconnect(_ mqtt.Client, err error) {
	c.log.Warn("mqtt disconnected", "error", err)
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.mu.Lock()
	handler, ok := c.handlers[msg.Topic()]
	c.mu.Unlock()
	if !ok {
		c.log.Warn("no handler registered for topic", "topic", msg.Topic())
		return
	}
	handler(msg.Payload())
}

func (c *Client) buildTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.cfg.Certificate, c.cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load device certificate/key: %w", err)
	}
	caPEM, err := os.ReadFile(c.cfg.CACertificate)
	if err != nil {
		return nil, fmt.Errorf("read ca certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("invalid ca certificate")
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
