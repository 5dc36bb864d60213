// Package httpclient implements ports.CloudClient: a named-endpoint REST table resolved at
// startup from configuration, with $deviceId/$customerId placeholder substitution in each
// endpoint's URL. Grounded on original_source/cloud/{cloud_client,aws_api}.py: one GET, one POST,
// one POST-with-response, one image download, each mapped to a status-code-driven error
// taxonomy. net/http is the standard transport in the corpus too (the teacher's own gin HTTP
// server is stdlib net/http underneath); no third-party HTTP client library is wired here.
package httpclient

import "time"

const (
	deviceIDPlaceholder   = "$deviceId"
	customerIDPlaceholder = "$customerId"
	defaultTimeout        = 15 * time.Second
)

// Endpoint is one named REST API the cloud exposes, with its URL template and API key.
type Endpoint struct {
	URL    string
	APIKey string
}

// Config is the resolved named-endpoint table plus the placeholders substituted into every URL.
type Config struct {
	Endpoints  map[string]Endpoint
	DeviceID   string
	CustomerID string
	Timeout    time.Duration
}
