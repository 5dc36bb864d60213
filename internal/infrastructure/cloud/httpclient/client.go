package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// Client is the REST implementation of ports.CloudClient. Mirrors AwsApi.get/post plus
// CloudClient's SEND_TO_CLOUD status-code-to-exception mapping, generalized from one hardcoded
// provider to a named-endpoint table.
type Client struct {
	cfg Config
	log logger.Logger
	hc  *http.Client
}

func New(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, log: log.Named("cloud.http"), hc: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) resolve(name string) (Endpoint, error) {
	ep, ok := c.cfg.Endpoints[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: endpoint %q", shared.ErrCloudNotFound, name)
	}
	ep.URL = strings.ReplaceAll(ep.URL, deviceIDPlaceholder, url.QueryEscape(c.cfg.DeviceID))
	ep.URL = strings.ReplaceAll(ep.URL, customerIDPlaceholder, url.QueryEscape(c.cfg.CustomerID))
	return ep, nil
}

// Get performs a GET against the named endpoint, appending params as query parameters.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error) {
	ep, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed endpoint url: %w", shared.ErrCloudFormat, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, ep)

	return c.doAndDecode(req)
}

// Post performs a fire-and-forget POST against the named endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, body any) error {
	_, err := c.post(ctx, endpoint, body, false)
	return err
}

// PostWithResponse performs a POST and decodes the JSON response body.
func (c *Client) PostWithResponse(ctx context.Context, endpoint string, body any) (map[string]any, error) {
	return c.post(ctx, endpoint, body, true)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, wantResponse bool) (map[string]any, error) {
	ep, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request body: %w", shared.ErrCloudFormat, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, ep)
	req.Header.Set("Content-Type", "application/json")

	if !wantResponse {
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, mapTransportErr(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, serverErr(resp)
		}
		return nil, nil
	}
	return c.doAndDecode(req)
}

func (c *Client) doAndDecode(req *http.Request) (map[string]any, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, mapTransportErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverErr(resp)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response body: %w", shared.ErrCloudFormat, err)
	}
	return out, nil
}

// DownloadImage fetches url into targetDir and returns the stored filename.
func (c *Client) DownloadImage(ctx context.Context, imgURL string, targetDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: download image: %w", shared.ErrCloudImageDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download image: status %d", shared.ErrCloudImageDownload, resp.StatusCode)
	}

	parsed, err := url.Parse(imgURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse image url: %w", shared.ErrCloudImageDownload, err)
	}
	name := filepath.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: cannot derive filename from url", shared.ErrCloudImageDownload)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create target dir: %w", shared.ErrCloudImageDownload, err)
	}
	dst := filepath.Join(targetDir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: create target file: %w", shared.ErrCloudImageDownload, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("%w: write image data: %w", shared.ErrCloudImageDownload, err)
	}
	return name, nil
}

func (c *Client) setHeaders(req *http.Request, ep Endpoint) {
	if ep.APIKey != "" {
		req.Header.Set("X-Api-Key", ep.APIKey)
	}
}

func serverErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%w: status=%d body=%s", shared.ErrCloudServer, resp.StatusCode, string(body))
}

func mapTransportErr(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return fmt.Errorf("%w: %w", shared.ErrCloudTimeout, err)
	}
	return fmt.Errorf("%w: %w", shared.ErrCloudConnection, err)
}
