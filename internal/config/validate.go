package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid or missing values.
// Defaults should be applied first.
func (c *RelayConfig) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if c.Upstream.PageURL == "" {
		return fmt.Errorf("upstream.page_url is required")
	}
	if c.Upstream.WSURL == "" {
		return fmt.Errorf("upstream.ws_url is required")
	}
	if c.Upstream.ConnectTimeout <= 0 {
		return fmt.Errorf("upstream.connect_timeout must be positive")
	}
	if c.Upstream.Proxy.Enabled {
		if c.Upstream.Proxy.URL == "" {
			return fmt.Errorf("upstream.proxy.url is required when proxy is enabled")
		}
		if _, err := url.Parse(c.Upstream.Proxy.URL); err != nil {
			return fmt.Errorf("upstream.proxy.url is invalid: %v", err)
		}
	}

	if c.Hub.SendBufferSize <= 0 {
		return fmt.Errorf("hub.send_buffer_size must be positive")
	}

	if c.Database.Enabled() {
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)",
				c.Database.MinConns, c.Database.MaxConns)
		}
		if c.Sink.BatchSize <= 0 {
			return fmt.Errorf("sink.batch_size must be positive")
		}
		if c.Sink.FlushInterval <= 0 {
			return fmt.Errorf("sink.flush_interval must be positive")
		}
	}

	return nil
}
