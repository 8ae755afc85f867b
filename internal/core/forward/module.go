package forward

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/internal/core/relay"
	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
	"github.com/dep2p/go-quictun/pkg/types"
)

// DefaultLinger 会话结束后等待对端关闭连接的上限
const DefaultLinger = 2 * time.Second

// Config 转发配置
type Config struct {
	Role types.Role

	// Local 客户端 TCP 监听地址
	Local string

	// Remote 客户端拨号的服务端地址
	Remote string

	// Target 服务端拨号的 TCP 目标
	Target string

	// DialTimeout QUIC 握手、TCP 拨号和等待流前导的超时，0 表示不限制
	DialTimeout time.Duration

	// Linger 本端先写完时等待对端关闭连接的上限，0 表示立即关闭
	Linger time.Duration
}

// Validate 按角色检查必需地址
func (c Config) Validate() error {
	switch c.Role {
	case types.RoleClient:
		if c.Local == "" || c.Remote == "" {
			return fmt.Errorf("%w: client forwarder requires local and remote", types.ErrConfig)
		}
	case types.RoleServer:
		if c.Target == "" {
			return fmt.Errorf("%w: server forwarder requires target", types.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown role %s", types.ErrConfig, c.Role)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建转发配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("%w: forwarder requires a config", types.ErrConfig)
	}
	role, err := cfg.Role()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Role:        role,
		Local:       cfg.Tunnel.Local,
		Remote:      cfg.Tunnel.Remote,
		Target:      cfg.Tunnel.Target,
		DialTimeout: cfg.Tunnel.DialTimeout.Duration(),
		Linger:      DefaultLinger,
	}, nil
}

// Params Forwarder 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config
	Endpoint   *tquic.Endpoint
	Factory    *relay.Factory
	Lifecycle  fx.Lifecycle
}

// ProvideForwarder 提供转发器，随应用启动与停止
func ProvideForwarder(p Params) (*Forwarder, error) {
	cfg, err := ConfigFromUnified(p.UnifiedCfg)
	if err != nil {
		return nil, err
	}
	f, err := New(cfg, p.Endpoint, p.Factory)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return f.Start()
		},
		OnStop: func(ctx context.Context) error {
			return f.Stop(ctx)
		},
	})
	return f, nil
}

// Module 是 forward 的 Fx 模块
var Module = fx.Module("forward",
	fx.Provide(ProvideForwarder),
)
