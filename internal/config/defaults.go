package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultListenAddr      = ":5001"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultPageURL         = "https://www.tiktok.com/@%s/live"
	DefaultWSURL           = "wss://webcast.tiktok.com/webcast/im/ws/?room_id=%s"
	DefaultConnectTimeout  = 30 * time.Second
	DefaultPingInterval    = 15 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultEventBufferSize = 1000

	DefaultSendBufferSize  = 256
	DefaultReadLimit       = 4096
	DefaultHubWriteTimeout = 10 * time.Second
	DefaultHubPingInterval = 30 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 4
	DefaultMinConns  = 1

	DefaultSinkBatchSize     = 100
	DefaultSinkFlushInterval = 5 * time.Second
	DefaultSinkBufferSize    = 1000
)

func (c *RelayConfig) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Upstream.PageURL == "" {
		c.Upstream.PageURL = DefaultPageURL
	}
	if c.Upstream.WSURL == "" {
		c.Upstream.WSURL = DefaultWSURL
	}
	if c.Upstream.ConnectTimeout == 0 {
		c.Upstream.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Upstream.PingInterval == 0 {
		c.Upstream.PingInterval = DefaultPingInterval
	}
	if c.Upstream.WriteTimeout == 0 {
		c.Upstream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Upstream.BufferSize == 0 {
		c.Upstream.BufferSize = DefaultEventBufferSize
	}

	if c.Hub.SendBufferSize == 0 {
		c.Hub.SendBufferSize = DefaultSendBufferSize
	}
	if c.Hub.ReadLimit == 0 {
		c.Hub.ReadLimit = DefaultReadLimit
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultHubWriteTimeout
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = DefaultHubPingInterval
	}

	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			c.Database.Port = DefaultDBPort
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = DefaultDBSSLMode
		}
		if c.Database.MaxConns == 0 {
			c.Database.MaxConns = DefaultMaxConns
		}
		if c.Database.MinConns == 0 {
			c.Database.MinConns = DefaultMinConns
		}
	}

	if c.Sink.BatchSize == 0 {
		c.Sink.BatchSize = DefaultSinkBatchSize
	}
	if c.Sink.FlushInterval == 0 {
		c.Sink.FlushInterval = DefaultSinkFlushInterval
	}
	if c.Sink.BufferSize == 0 {
		c.Sink.BufferSize = DefaultSinkBufferSize
	}
}
