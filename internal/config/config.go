package config

import "time"

// RelayConfig is the top-level configuration for the relay binary.
type RelayConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Hub      HubConfig      `yaml:"hub"`
	Database DBConfig       `yaml:"database"`
	Sink     SinkConfig     `yaml:"sink"`
}

// ServerConfig configures the HTTP control plane and subscriber endpoint.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig configures connections to the live platform.
type UpstreamConfig struct {
	// PageURL is the live page template used to resolve room ids; %s is
	// replaced with the room key.
	PageURL string `yaml:"page_url"`

	// WSURL is the webcast WebSocket endpoint template; %s is replaced
	// with the resolved room id.
	WSURL string `yaml:"ws_url"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	BufferSize     int           `yaml:"buffer_size"`

	Proxy ProxyConfig `yaml:"proxy"`
}

// ProxyConfig is the initial outbound proxy state. It can be mutated at
// runtime via the /api/config/proxy endpoint.
type ProxyConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// HubConfig configures the subscriber hub.
type HubConfig struct {
	// SendBufferSize is the per-session outbound queue; events are
	// dropped per-session when it is full.
	SendBufferSize int `yaml:"send_buffer_size"`

	ReadLimit    int64         `yaml:"read_limit"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// DBConfig configures the optional stats database. Host empty = disabled.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a stats database is configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// SinkConfig configures the batching stats writer.
type SinkConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}
