package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gateward/gateward/internal/testutil"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8090, cfg.Port)
	assert.NotZero(t, cfg.ReadHeaderTimeout)
	// Gateway sockets are long-lived; no write deadline by default
	assert.Zero(t, cfg.WriteTimeout)
}

func TestNewServerAddr(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9999

	srv := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	assert.Equal(t, "127.0.0.1:9999", srv.Addr())
}
