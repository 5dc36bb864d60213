// Package mqttclient implements ports.IotClient and ports.DispenseHardware on top of
// eclipse/paho.mqtt.golang. Grounded on original_source/cloud/mqtt_client.py's MqttClient: same
// topic/handler table, same on_connect-time (re)subscription, same TLS client-cert setup.
//
// Open Question #3 resolved here: the source's connect() loops CONNECT_ATTEMPTS times but each
// iteration's finally: return exits after the very first attempt regardless of outcome, so the
// retry loop and its exponential-ish sleep never actually run more than once. This client instead
// retries with cenkalti/backoff/v5 and only raises ErrModuleStartup once the backoff is exhausted.
package mqttclient

import "time"

// Config mirrors MqttClient.REQ_CFG_OPTIONS plus the dispense-hardware topic this system adds.
type Config struct {
	Endpoint         string
	Port             int
	CACertificate    string
	Certificate      string
	PrivateKey       string
	DeviceID         string
	KeepAlive        time.Duration
	MaxMessageSize   int
	ConnectAttempts  int
	ConnectTimeout   time.Duration
	DispenseTopic    string // outbound: hardware dispense requests, this device's own topic
}

const (
	DefaultPort           = 8883
	DefaultMaxMessageSize = 4096
	DefaultKeepAlive      = 60 * time.Second
	DefaultConnectAttempts = 5
	DefaultConnectTimeout  = 2 * time.Second
)
