package quic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-quictun/config"
	sectls "github.com/dep2p/go-quictun/internal/core/security/tls"
	"github.com/dep2p/go-quictun/pkg/types"
)

func TestConfigFromUnified(t *testing.T) {
	cfg, err := ConfigFromUnified(nil)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	unified := config.NewConfig()
	unified.Transport.Congestion = "BBR"
	unified.Transport.IdleTimeout = config.Duration(20 * time.Second)
	unified.Transport.ALPN = "quictun/2, quictun/1,"
	unified.Tunnel.ServerName = "tunnel"
	unified.Security.CA = "/tmp/ca.pem"

	cfg, err = ConfigFromUnified(unified)
	require.NoError(t, err)
	assert.Equal(t, types.RoleClient, cfg.Role)
	assert.Equal(t, CongestionBBR, cfg.Congestion)
	assert.True(t, cfg.KeepAlive)
	assert.Equal(t, 20*time.Second, cfg.IdleTimeout)
	assert.Equal(t, []string{"quictun/2", "quictun/1"}, cfg.ALPN)
	assert.Equal(t, "tunnel", cfg.ServerName)
	assert.Equal(t, "/tmp/ca.pem", cfg.Certs.CA)

	// 服务端默认不发 keep-alive
	unified.Mode = config.ModeServer
	unified.Transport.ALPN = ""
	cfg, err = ConfigFromUnified(unified)
	require.NoError(t, err)
	assert.False(t, cfg.KeepAlive)
	assert.Equal(t, []string{DefaultALPN}, cfg.ALPN)

	p, err := cfg.Policy()
	require.NoError(t, err)
	_, ok := p.KeepAliveInterval()
	assert.False(t, ok)

	unified.Transport.Congestion = "vegas"
	_, err = ConfigFromUnified(unified)
	assert.ErrorIs(t, err, types.ErrConfig)

	unified.Transport.Congestion = "cubic"
	unified.Mode = "peer"
	_, err = ConfigFromUnified(unified)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestBuildEndpoint(t *testing.T) {
	pki, err := sectls.GenerateTestPKI(t.TempDir())
	require.NoError(t, err)
	store := sectls.NewFileCertStore()

	cfg := NewConfig()
	cfg.Role = types.RoleServer
	cfg.Listen = "127.0.0.1:0"
	cfg.Certs = pki.Server
	server, err := BuildEndpoint(cfg, store)
	require.NoError(t, err)
	defer server.Close()
	assert.Equal(t, types.RoleServer, server.Role())

	cfg = NewConfig()
	cfg.Certs = pki.Client
	cfg.ServerName = "localhost"
	client, err := BuildEndpoint(cfg, store)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost", client.serverName)

	cfg.IdleTimeout = 0
	_, err = BuildEndpoint(cfg, store)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	cfg = NewConfig()
	cfg.Role = types.Role(7)
	_, err = BuildEndpoint(cfg, store)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestProvideEndpoint_Lifecycle(t *testing.T) {
	pki, err := sectls.GenerateTestPKI(t.TempDir())
	require.NoError(t, err)

	cfg := NewConfig()
	cfg.Role = types.RoleServer
	cfg.Listen = "127.0.0.1:0"
	cfg.Certs = pki.Server

	lc := fxtest.NewLifecycle(t)
	e, err := ProvideEndpoint(EndpointParams{Config: cfg, CertStore: sectls.NewFileCertStore(), Lifecycle: lc})
	require.NoError(t, err)

	lc.RequireStart()
	lc.RequireStop()

	_, err = e.Accept(testContext(t))
	assert.ErrorIs(t, err, ErrEndpointClosed)
}
