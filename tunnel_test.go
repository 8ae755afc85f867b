package quictun

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/internal/core/forward"
	sectls "github.com/dep2p/go-quictun/internal/core/security/tls"
	"github.com/dep2p/go-quictun/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

func testPKI(t *testing.T) *sectls.TestPKI {
	t.Helper()
	pki, err := sectls.GenerateTestPKI(t.TempDir())
	require.NoError(t, err)
	return pki
}

// echoTarget 启动回显 TCP 服务，返回地址
func echoTarget(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return ln.Addr().String()
}

func serverConfig(pki *sectls.TestPKI, target, compression string) *config.Config {
	cfg := config.NewConfig()
	cfg.Mode = config.ModeServer
	cfg.Tunnel.Listen = "127.0.0.1:0"
	cfg.Tunnel.Target = target
	cfg.Security.CA = pki.Server.CA
	cfg.Security.Cert = pki.Server.Cert
	cfg.Security.Key = pki.Server.Key
	cfg.Relay.Compression = compression
	return cfg
}

func clientConfig(pki *sectls.TestPKI, remote, compression string) *config.Config {
	cfg := config.NewConfig()
	cfg.Mode = config.ModeClient
	cfg.Tunnel.Local = "127.0.0.1:0"
	cfg.Tunnel.Remote = remote
	cfg.Security.CA = pki.Client.CA
	cfg.Security.Cert = pki.Client.Cert
	cfg.Security.Key = pki.Client.Key
	cfg.Relay.Compression = compression
	return cfg
}

func startTunnel(t *testing.T, opts ...Option) *Tunnel {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tun, err := Start(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tun.Close() })
	return tun
}

// ============================================================================
//                              端到端
// ============================================================================

func TestTunnel_EndToEnd(t *testing.T) {
	pki := testPKI(t)
	target := echoTarget(t)

	server := startTunnel(t, WithConfig(serverConfig(pki, target, "zstd")))
	require.NotNil(t, server.EndpointAddr())
	assert.Nil(t, server.LocalAddr())
	assert.Equal(t, types.RoleServer, server.Role())

	client := startTunnel(t, WithConfig(clientConfig(pki, server.EndpointAddr().String(), "zstd")))
	require.NotNil(t, client.LocalAddr())
	assert.Equal(t, types.RoleClient, client.Role())
	assert.Equal(t, compress.ModeZstd, client.Compression())

	conn, err := net.Dial("tcp", client.LocalAddr().String())
	require.NoError(t, err)

	// 一半可压缩一半随机
	payload := bytes.Repeat([]byte("quictun "), 8<<10)
	noise := make([]byte, 64<<10)
	_, _ = rand.Read(noise)
	payload = append(payload, noise...)

	go func() { _, _ = conn.Write(payload) }()

	got := make([]byte, len(payload))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, err = io.ReadFull(conn, got)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
	require.NoError(t, conn.Close())

	want := uint64(len(payload))
	assert.Eventually(t, func() bool {
		snap := client.Metrics()
		return client.Active() == 0 &&
			snap.Reverse.RawBytes == want &&
			snap.Forward.RawBytes == want
	}, 10*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		snap := server.Metrics()
		return server.Active() == 0 && snap.Forward.RawBytes == want
	}, 10*time.Second, 20*time.Millisecond)

	// 可压缩的明文在线上更小
	snap := client.Metrics()
	assert.Less(t, snap.Reverse.WireBytes, snap.Reverse.RawBytes)
	assert.Greater(t, snap.Reverse.Ratio, 0.0)
}

func TestTunnel_CompressionMismatch(t *testing.T) {
	pki := testPKI(t)
	target := echoTarget(t)

	server := startTunnel(t, WithConfig(serverConfig(pki, target, "lz4")))
	client := startTunnel(t, WithConfig(clientConfig(pki, server.EndpointAddr().String(), "snappy")))

	conn, err := net.Dial("tcp", client.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, _ = conn.Write([]byte("hello"))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	data, err := io.ReadAll(conn)
	if err != nil {
		var ne net.Error
		if assert.ErrorAs(t, err, &ne) {
			assert.False(t, ne.Timeout(), "connection should be closed, not time out")
		}
	}
	assert.Empty(t, data)
}

// ============================================================================
//                              生命周期
// ============================================================================

func TestTunnel_Lifecycle(t *testing.T) {
	pki := testPKI(t)
	tun, err := New(WithConfig(serverConfig(pki, "127.0.0.1:1", "")))
	require.NoError(t, err)

	assert.ErrorIs(t, tun.Stop(context.Background()), ErrNotStarted)

	ctx := context.Background()
	require.NoError(t, tun.Start(ctx))
	assert.ErrorIs(t, tun.Start(ctx), ErrAlreadyStarted)

	require.NoError(t, tun.Stop(ctx))
	assert.ErrorIs(t, tun.Start(ctx), ErrTunnelClosed)
	assert.ErrorIs(t, tun.Stop(ctx), ErrTunnelClosed)
	assert.NoError(t, tun.Close())
}

func TestTunnel_CloseWithoutStart(t *testing.T) {
	pki := testPKI(t)
	tun, err := New(WithConfig(serverConfig(pki, "127.0.0.1:1", "")))
	require.NoError(t, err)
	addr := tun.EndpointAddr().String()

	require.NoError(t, tun.Close())
	assert.NoError(t, tun.Close())
	assert.ErrorIs(t, tun.Start(context.Background()), ErrTunnelClosed)

	// UDP 端口已释放
	pc, err := net.ListenPacket("udp", addr)
	require.NoError(t, err)
	_ = pc.Close()
}

func TestTunnel_ClientListenFailure(t *testing.T) {
	pki := testPKI(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := clientConfig(pki, "127.0.0.1:4433", "")
	cfg.Tunnel.Local = busy.Addr().String()

	_, err = Start(context.Background(), WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen tcp")
}

// ============================================================================
//                              选项
// ============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	// 默认客户端配置缺少 tunnel.remote
	_, err := New()
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = New(WithConfig(nil))
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = New(WithConfig(config.NewConfig()), WithConfigFile("quictun.toml"))
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = New(WithConfigFile(filepath.Join(t.TempDir(), "missing.json")))
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestNew_MissingCertificates(t *testing.T) {
	cfg := serverConfig(&sectls.TestPKI{}, "127.0.0.1:1", "")
	dir := t.TempDir()
	cfg.Security.CA = filepath.Join(dir, "ca.pem")
	cfg.Security.Cert = filepath.Join(dir, "cert.pem")
	cfg.Security.Key = filepath.Join(dir, "key.pem")

	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ca.pem")
}

func TestNew_EnvAndOverrides(t *testing.T) {
	pki := testPKI(t)
	env := map[string]string{
		"QUICTUN_COMPRESSION": "lz4",
		"QUICTUN_CONGESTION":  "bbr",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	tun, err := New(
		WithConfig(serverConfig(pki, "127.0.0.1:1", "none")),
		WithEnv(lookup),
	)
	require.NoError(t, err)
	defer tun.Close()
	assert.Equal(t, compress.ModeLz4, tun.Compression())
	assert.Equal(t, "bbr", tun.Config().Transport.Congestion)

	// 显式选项优先于环境变量
	tun2, err := New(
		WithConfig(serverConfig(pki, "127.0.0.1:1", "none")),
		WithEnv(lookup),
		WithCompression("brotli"),
	)
	require.NoError(t, err)
	defer tun2.Close()
	assert.Equal(t, compress.ModeBrotli, tun2.Compression())

	_, err = New(
		WithConfig(serverConfig(pki, "127.0.0.1:1", "none")),
		WithMode("relay"),
	)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestNew_ConfigFile(t *testing.T) {
	pki := testPKI(t)
	path := filepath.Join(t.TempDir(), "server.toml")
	body := strings.Join([]string{
		`mode = "server"`,
		`[tunnel]`,
		`listen = "127.0.0.1:0"`,
		`target = "127.0.0.1:1"`,
		`[security]`,
		`ca = "` + filepath.ToSlash(pki.Server.CA) + `"`,
		`cert = "` + filepath.ToSlash(pki.Server.Cert) + `"`,
		`key = "` + filepath.ToSlash(pki.Server.Key) + `"`,
		`[relay]`,
		`compression = "snappy"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tun, err := New(WithConfigFile(path))
	require.NoError(t, err)
	defer tun.Close()
	assert.Equal(t, types.RoleServer, tun.Role())
	assert.Equal(t, compress.ModeSnappy, tun.Compression())
}

func TestNew_UserFxOptions(t *testing.T) {
	pki := testPKI(t)

	var fwd *forward.Forwarder
	tun, err := New(
		WithConfig(serverConfig(pki, "127.0.0.1:1", "")),
		WithFxOptions(fx.Populate(&fwd)),
	)
	require.NoError(t, err)
	defer tun.Close()

	require.NotNil(t, fwd)
	assert.Equal(t, types.RoleServer, fwd.Role())
}

func TestVersionInfo(t *testing.T) {
	assert.True(t, strings.HasPrefix(VersionInfo(), "quictun "+Version))

	GitCommit = "0123456789abcdef"
	defer func() { GitCommit = "" }()
	assert.Contains(t, VersionInfo(), "(01234567)")
}
