package quic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
	"github.com/dep2p/go-quictun/pkg/types"
)

// Config 端点配置
type Config struct {
	// Role 端点角色
	Role types.Role

	// 传输策略
	Congestion  CongestionMode
	KeepAlive   bool
	IdleTimeout time.Duration

	// ALPN 协议列表，两端至少有一个相同
	ALPN []string

	// 服务端
	Listen         string
	StatelessRetry bool

	// 客户端
	ServerName string

	// Certs mTLS 证书路径
	Certs pkgif.CertPaths
}

// NewConfig 创建默认配置（客户端角色）
func NewConfig() Config {
	return Config{
		Role:        types.RoleClient,
		Congestion:  CongestionNewReno,
		KeepAlive:   true,
		IdleTimeout: 30 * time.Second,
		ALPN:        []string{DefaultALPN},
	}
}

// ConfigFromUnified 从统一配置创建端点配置
//
// keep-alive 未显式配置时只在客户端启用。
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return NewConfig(), nil
	}

	role, err := cfg.Role()
	if err != nil {
		return Config{}, err
	}

	congestion := CongestionNewReno
	if cfg.Transport.Congestion != "" {
		congestion, err = ParseCongestionMode(cfg.Transport.Congestion)
		if err != nil {
			return Config{}, err
		}
	}

	alpn := []string{DefaultALPN}
	if cfg.Transport.ALPN != "" {
		alpn = splitALPN(cfg.Transport.ALPN)
	}

	return Config{
		Role:           role,
		Congestion:     congestion,
		KeepAlive:      cfg.Transport.KeepAliveFor(role),
		IdleTimeout:    cfg.Transport.IdleTimeout.Duration(),
		ALPN:           alpn,
		Listen:         cfg.Tunnel.Listen,
		StatelessRetry: cfg.Transport.StatelessRetry,
		ServerName:     cfg.Tunnel.ServerName,
		Certs: pkgif.CertPaths{
			CA:   cfg.Security.CA,
			Cert: cfg.Security.Cert,
			Key:  cfg.Security.Key,
		},
	}, nil
}

// splitALPN 拆分逗号分隔的协议列表
func splitALPN(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Policy 按配置生成传输策略
func (c Config) Policy() (Policy, error) {
	return BuildPolicy(c.Congestion, c.KeepAlive, c.IdleTimeout)
}

// BuildEndpoint 按角色构建端点
func BuildEndpoint(cfg Config, store pkgif.CertStore) (*Endpoint, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	switch cfg.Role {
	case types.RoleClient:
		e, err := BuildClientEndpoint(store, cfg.Certs, policy, cfg.ALPN)
		if err != nil {
			return nil, err
		}
		e.SetServerName(cfg.ServerName)
		return e, nil
	case types.RoleServer:
		return BuildServerEndpoint(store, cfg.Certs, policy, cfg.ALPN, cfg.Listen, cfg.StatelessRetry)
	default:
		return nil, fmt.Errorf("%w: unknown role %s", types.ErrConfig, cfg.Role)
	}
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// ConfigParams 配置依赖参数
type ConfigParams struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// ProvideConfig 从统一配置提供端点配置
func ProvideConfig(p ConfigParams) (Config, error) {
	return ConfigFromUnified(p.UnifiedCfg)
}

// EndpointParams 端点依赖参数
type EndpointParams struct {
	fx.In

	Config    Config
	CertStore pkgif.CertStore
	Lifecycle fx.Lifecycle
}

// ProvideEndpoint 提供端点，在应用停止时关闭
func ProvideEndpoint(p EndpointParams) (*Endpoint, error) {
	e, err := BuildEndpoint(p.Config, p.CertStore)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return e.Close()
		},
	})
	return e, nil
}

// Module 是 transport/quic 的 Fx 模块
var Module = fx.Module("transport/quic",
	fx.Provide(
		ProvideConfig,
		ProvideEndpoint,
	),
)
