package quictun

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/internal/core/forward"
	"github.com/dep2p/go-quictun/internal/core/metrics"
	"github.com/dep2p/go-quictun/internal/core/relay"
	sectls "github.com/dep2p/go-quictun/internal/core/security/tls"
	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
	"github.com/dep2p/go-quictun/internal/util/logger"
	"github.com/dep2p/go-quictun/pkg/types"
)

var log = logger.Logger("quictun")

const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second

	// closeTimeout Close 停止应用的超时
	closeTimeout = 10 * time.Second
)

// Tunnel 隧道端点
//
// 由 New 创建（此时 QUIC 端点已绑定）。Start 开始接受连接，
// Stop / Close 中止所有会话并释放资源；停止后不能重新启动。
type Tunnel struct {
	cfg *config.Config
	app *fx.App

	forwarder *forward.Forwarder
	endpoint  *tquic.Endpoint
	factory   *relay.Factory
	collector *metrics.Collector
	store     *sectls.FileCertStore

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 按选项创建隧道
//
// 配置在任何 I/O 之前验证；证书加载或 UDP 绑定失败时返回错误。
func New(opts ...Option) (*Tunnel, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	cfg, err := o.resolve()
	if err != nil {
		return nil, err
	}

	t := &Tunnel{cfg: cfg}
	t.app = buildFxApp(cfg, o, t)
	if err := t.app.Err(); err != nil {
		return nil, fmt.Errorf("build tunnel: %w", err)
	}
	return t, nil
}

// Start 创建并启动隧道
func Start(ctx context.Context, opts ...Option) (*Tunnel, error) {
	t, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Start(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Start 启动隧道
func (t *Tunnel) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTunnelClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := t.app.Start(startCtx); err != nil {
		log.Error("tunnel start failed", "mode", t.cfg.Mode, "err", err)
		return fmt.Errorf("start tunnel: %w", err)
	}
	t.started = true

	log.Info("tunnel started",
		"mode", t.cfg.Mode,
		"local", t.LocalAddr(),
		"endpoint", t.endpoint.LocalAddr(),
		"compression", t.factory.Mode(),
		"transport", t.endpoint.Policy())
	return nil
}

// Stop 停止隧道并中止所有会话
func (t *Tunnel) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTunnelClosed
	}
	if !t.started {
		return ErrNotStarted
	}
	return t.stopLocked(ctx)
}

// Close 停止隧道并释放资源，可重复调用
func (t *Tunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	if !t.started {
		t.closed = true
		return t.release()
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return t.stopLocked(ctx)
}

func (t *Tunnel) stopLocked(ctx context.Context) error {
	t.closed = true
	t.started = false

	err := t.app.Stop(ctx)
	if err != nil {
		log.Error("tunnel stop failed", "err", err)
		return fmt.Errorf("stop tunnel: %w", err)
	}
	log.Info("tunnel stopped", "mode", t.cfg.Mode)
	return nil
}

// release 关闭从未启动的应用持有的端点与证书库
func (t *Tunnel) release() error {
	var err error
	if t.endpoint != nil {
		err = multierr.Append(err, t.endpoint.Close())
	}
	if t.store != nil {
		err = multierr.Append(err, t.store.Close())
	}
	return err
}

// ════════════════════════════════════════════════════════════════════════════
//                              访问器
// ════════════════════════════════════════════════════════════════════════════

// Config 返回生效配置的副本
func (t *Tunnel) Config() *config.Config {
	return config.CloneConfig(t.cfg)
}

// Role 返回隧道角色
func (t *Tunnel) Role() types.Role {
	return t.forwarder.Role()
}

// Compression 返回压缩模式
func (t *Tunnel) Compression() compress.Mode {
	return t.factory.Mode()
}

// LocalAddr 返回客户端 TCP 监听地址；服务端或未启动时为 nil
func (t *Tunnel) LocalAddr() net.Addr {
	return t.forwarder.LocalAddr()
}

// EndpointAddr 返回 QUIC 端点的 UDP 地址
func (t *Tunnel) EndpointAddr() net.Addr {
	return t.endpoint.LocalAddr()
}

// Active 返回运行中的会话数
func (t *Tunnel) Active() int {
	return t.forwarder.Active()
}

// Metrics 返回中继统计快照
func (t *Tunnel) Metrics() metrics.Snapshot {
	return t.collector.Snapshot()
}

// Collector 返回指标收集器
func (t *Tunnel) Collector() *metrics.Collector {
	return t.collector
}
