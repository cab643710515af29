package database

import (
	"fmt"
	"net/url"

	"github.com/xmgamer/liverelay/internal/config"
)

// BuildConnString renders the pool URL for the stats database. The
// password is escaped so credentials with reserved characters survive
// the URL form; ssl mode is filled in by config defaults before this is
// called.
func BuildConnString(cfg config.DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.SSLMode,
	)
}
