package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quoteproc/quote-processor/internal/common"
)

// Config for the ERPNext (Frappe) REST client.
type Config struct {
	URL       string
	APIKey    string
	APISecret string
	Timeout   time.Duration // http client timeout
}

// DocClient is the resource-management system boundary: lookup by
// natural key and creation, both per doctype.
type DocClient interface {
	GetDoc(ctx context.Context, doctype, name string) (map[string]any, error)
	InsertDoc(ctx context.Context, doctype string, payload map[string]any) (map[string]any, error)
}

// Client talks to a Frappe/ERPNext instance over its resource API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client handle. Missing credentials are a
// configuration error; callers degrade to extract-only mode.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "missing ERPNext credentials", common.ErrConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// GetDoc fetches a document by natural key. A 404 maps to
// common.ErrNotFound so callers can treat it as "does not exist".
func (c *Client) GetDoc(ctx context.Context, doctype, name string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/resource/%s/%s",
		strings.TrimRight(c.cfg.URL, "/"), url.PathEscape(doctype), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req, doctype, name)
}

// InsertDoc creates a document of the given doctype.
func (c *Client) InsertDoc(ctx context.Context, doctype string, payload map[string]any) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/resource/%s",
		strings.TrimRight(c.cfg.URL, "/"), url.PathEscape(doctype))

	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req, doctype, "")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.cfg.APIKey+":"+c.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request, doctype, name string) (map[string]any, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("erpnext.request_failed",
			"method", req.Method, "doctype", doctype, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("erpnext.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("erpnext.response",
		"method", req.Method, "doctype", doctype, "name", name,
		"status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %q: %w", doctype, name, common.ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("erpnext status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Data, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
