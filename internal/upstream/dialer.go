package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xmgamer/liverelay/internal/config"
)

// WebcastDialer opens real connections to the webcast feed.
type WebcastDialer struct {
	cfg    config.UpstreamConfig
	proxy  *ProxySettings
	logger *slog.Logger
}

// NewWebcastDialer creates a dialer bound to the shared proxy settings.
func NewWebcastDialer(cfg config.UpstreamConfig, proxy *ProxySettings, logger *slog.Logger) *WebcastDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebcastDialer{
		cfg:    cfg,
		proxy:  proxy,
		logger: logger,
	}
}

// httpClient builds the client used for room id resolution, honoring the
// current proxy settings.
func (d *WebcastDialer) httpClient() *http.Client {
	return &http.Client{
		Timeout: d.cfg.ConnectTimeout,
		Transport: &http.Transport{
			Proxy: d.proxy.proxyFunc(),
		},
	}
}

// Dial resolves the room id and opens the webcast WebSocket. The whole
// attempt is bounded by the configured connect timeout.
func (d *WebcastDialer) Dial(ctx context.Context, roomKey string) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()

	roomID, err := d.resolveRoomID(ctx, roomKey)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrConnectTimedOut
		}
		return nil, fmt.Errorf("resolve room id: %w", err)
	}

	d.logger.Debug("room id resolved", "room_key", roomKey, "room_id", roomID)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Proxy:            d.proxy.proxyFunc(),
	}

	wsURL := fmt.Sprintf(d.cfg.WSURL, roomID)
	wsConn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrConnectTimedOut
		}
		return nil, fmt.Errorf("dial webcast: %w", err)
	}

	c := newConn(roomID, wsConn, d.cfg, d.logger.With("room_key", roomKey))

	go c.readLoop()
	go c.heartbeatLoop()

	d.logger.Debug("webcast connected", "room_key", roomKey, "room_id", roomID)

	return c, nil
}
