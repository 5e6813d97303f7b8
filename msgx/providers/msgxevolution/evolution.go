package msgxevolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
)

const (
	evolutionProvider = "evolution"

	// WebhookSecretHeader carries the shared secret on gateway callbacks
	WebhookSecretHeader = "X-Webhook-Secret"

	defaultTimeout = 30 * time.Second
	logBodyLimit   = 500
)

// Config holds the gateway connection settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// WebhookURL and WebhookSecret are registered on new instances when set
	WebhookURL    string
	WebhookSecret string
}

// Configured reports whether the client can reach a gateway at all
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Client implements msgx.Gateway for Evolution API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logx.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mostly for tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *logx.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(config Config, opts ...Option) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logx.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ msgx.Gateway = (*Client)(nil)

// Execute sends cmd to the gateway. It assumes cmd came from msgx.ParseCommand.
func (c *Client) Execute(ctx context.Context, cmd msgx.Command) (*msgx.Response, error) {
	if !c.config.Configured() {
		return nil, msgx.Registry.New(msgx.ErrGatewayConfig).
			WithDetail("provider", evolutionProvider).
			WithDetail("base_url_set", c.config.BaseURL != "").
			WithDetail("api_key_set", c.config.APIKey != "")
	}

	rt, ok := routes[cmd.Action]
	if !ok {
		return nil, msgx.Registry.New(msgx.ErrInvalidAction).WithDetail("action", cmd.Action)
	}

	url := c.config.BaseURL + rt.path
	if rt.perInstance {
		url += cmd.Instance
	}

	var reqBody io.Reader
	if rt.body != nil && rt.method != http.MethodGet {
		payload, err := json.Marshal(rt.body(cmd, c.config))
		if err != nil {
			return nil, msgx.Registry.NewWithCause(msgx.ErrGatewayTransport, err).
				WithDetail("operation", "marshal_body")
		}
		c.logger.Trace("Gateway request body: %s", msgx.Truncate(string(payload), logBodyLimit))
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rt.method, url, reqBody)
	if err != nil {
		return nil, msgx.Registry.NewWithCause(msgx.ErrGatewayTransport, err).
			WithDetail("operation", "create_request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.APIKey)

	c.logger.Info("Calling gateway: %s %s", rt.method, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, msgx.Registry.NewWithCause(msgx.ErrGatewayTransport, err).
			WithDetail("provider", evolutionProvider).
			WithDetail("operation", "http_request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, msgx.Registry.NewWithCause(msgx.ErrGatewayTransport, err).
			WithDetail("operation", "read_body")
	}

	c.logger.Debug("Gateway response %d: %s", resp.StatusCode, msgx.Truncate(string(raw), logBodyLimit))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := decodeBody(raw)
		if err != nil {
			// error pages from proxies in front of the gateway are often HTML
			body = string(raw)
		}
		return nil, apiError(resp.StatusCode, body)
	}

	body, err := decodeBody(raw)
	if err != nil {
		return nil, msgx.Registry.NewWithCause(msgx.ErrGatewayDecode, err).
			WithDetail("http_status", resp.StatusCode)
	}
	return &msgx.Response{Status: resp.StatusCode, Body: body}, nil
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func apiError(status int, body any) error {
	switch status {
	case http.StatusNotFound:
		return msgx.Registry.New(msgx.ErrInstanceNotFound).WithDetail("data", body)
	case http.StatusConflict:
		return msgx.Registry.New(msgx.ErrInstanceExists).WithDetail("data", body)
	}
	return msgx.Registry.New(msgx.ErrGatewayAPI).
		WithMessage(fmt.Sprintf("API_ERROR_%d", status)).
		WithDetail("status", status).
		WithDetail("message", errorMessage(status, body)).
		WithDetail("data", body)
}

// errorMessage prefers body.message, then body.response.message
func errorMessage(status int, body any) string {
	obj, _ := body.(map[string]any)
	if msg := messageText(obj["message"]); msg != "" {
		return msg
	}
	if nested, ok := obj["response"].(map[string]any); ok {
		if msg := messageText(nested["message"]); msg != "" {
			return msg
		}
	}
	return http.StatusText(status)
}

func messageText(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
