package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// HTTPClient talks to the catalog, identity and notification services. Every
// failure it returns wraps models.ErrRemoteUnavailable.
type HTTPClient struct {
	catalogURL      string
	identityURL     string
	notificationURL string
	client          *http.Client
	tokens          TokenSource
	logger          *logger.Logger
}

type Option func(*HTTPClient)

// WithTokenSource attaches an Authorization header to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) { c.client = client }
}

func NewHTTPClient(cfg config.ServicesConfig, log *logger.Logger, opts ...Option) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &HTTPClient{
		catalogURL:      strings.TrimRight(cfg.CatalogURL, "/"),
		identityURL:     strings.TrimRight(cfg.IdentityURL, "/"),
		notificationURL: strings.TrimRight(cfg.NotificationURL, "/"),
		client:          &http.Client{Timeout: timeout},
		logger:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]map[string]any, error) {
	var events []map[string]any
	if err := c.getJSON(ctx, c.catalogURL+"/events", &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]map[string]any, error) {
	var users []map[string]any
	if err := c.getJSON(ctx, c.identityURL+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) SendEmail(ctx context.Context, email models.EmailRequest) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("%w: encode email: %v", models.ErrRemoteUnavailable, err)
	}

	url := c.notificationURL + "/notifications/send-email"
	resp, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("GATEWAY", fmt.Sprintf("Failed to decode response from %s: %v", url, err))
		return fmt.Errorf("%w: decode %s: %v", models.ErrRemoteUnavailable, url, err)
	}
	return nil
}

// do sends the request and returns the response only for 2xx statuses.
func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s %s: %v", models.ErrRemoteUnavailable, method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Error("GATEWAY", fmt.Sprintf("Failed to obtain service token: %v", err))
			return nil, fmt.Errorf("%w: service token: %v", models.ErrRemoteUnavailable, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("GATEWAY", fmt.Sprintf("%s %s", method, url))
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("GATEWAY", fmt.Sprintf("%s %s failed: %v", method, url, err))
		return nil, fmt.Errorf("%w: %s %s: %v", models.ErrRemoteUnavailable, method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		c.logger.Error("GATEWAY", fmt.Sprintf("%s %s returned %d: %s", method, url, resp.StatusCode, string(snippet)))
		return nil, fmt.Errorf("%w: %s %s returned status %d", models.ErrRemoteUnavailable, method, url, resp.StatusCode)
	}

	c.logger.Debug("GATEWAY", fmt.Sprintf("%s %s - %d (%s)", method, url, resp.StatusCode, time.Since(start)))
	return resp, nil
}
