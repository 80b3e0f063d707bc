package erpnext

import (
	"log/slog"
	"sync"
)

// Provider lazily constructs the process-wide client handle. The first
// caller pays the construction cost; concurrent first use is safe and
// at most one client is ever built. A construction failure is sticky
// and leaves the system in extract-only mode rather than crashing.
type Provider struct {
	cfg    Config
	logger *slog.Logger

	once   sync.Once
	client *Client
	err    error
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, logger: logger}
}

// Client returns the shared handle, constructing it on first use.
func (p *Provider) Client() (*Client, error) {
	p.once.Do(func() {
		p.client, p.err = NewClient(p.cfg, p.logger)
		if p.err != nil {
			p.logger.Warn("erpnext.client_unavailable",
				"error", p.err, "hint", "continuing in extract-only mode")
		}
	})
	return p.client, p.err
}
