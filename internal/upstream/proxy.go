package upstream

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/xmgamer/liverelay/internal/config"
)

// ProxySettings holds the process-wide outbound proxy state. It is
// consulted at each dial, so runtime updates apply to the next Start
// without restarting the relay.
type ProxySettings struct {
	mu      sync.RWMutex
	url     string
	enabled bool
}

// NewProxySettings seeds the settings from config.
func NewProxySettings(cfg config.ProxyConfig) *ProxySettings {
	return &ProxySettings{url: cfg.URL, enabled: cfg.Enabled}
}

// Update mutates the settings. Nil fields are left unchanged. It
// returns the resulting state.
func (p *ProxySettings) Update(proxyURL *string, enabled *bool) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if proxyURL != nil {
		p.url = *proxyURL
	}
	if enabled != nil {
		p.enabled = *enabled
	}
	return p.url, p.enabled
}

// Snapshot returns the current state.
func (p *ProxySettings) Snapshot() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url, p.enabled
}

// proxyFunc returns a proxy selector for http.Transport and
// websocket.Dialer, or nil when the proxy is disabled or unset.
func (p *ProxySettings) proxyFunc() func(*http.Request) (*url.URL, error) {
	raw, enabled := p.Snapshot()
	if !enabled || raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return http.ProxyURL(u)
}
