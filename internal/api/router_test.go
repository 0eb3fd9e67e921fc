package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/testutil"
)

// The gateway endpoint upgrades to websocket behind the router's
// middleware chain, so the wrapped writer must keep hijacking working.
func TestGatewayUpgradeThroughMiddleware(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gateway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.Close()
	})

	router := NewRouter(RouterConfig{
		Logger:  testutil.NopLogger(),
		Gateway: gateway,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/gateway"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}

func TestRouterWithoutTokenHashOmitsAdminRoutes(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: testutil.NopLogger()})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
