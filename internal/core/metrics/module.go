package metrics

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	// Listen HTTP 监听地址，为空时不启动服务（仍然收集）
	Listen string

	// Path 指标路径
	Path string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path: DefaultPath,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	out := Config{
		Listen: cfg.Metrics.Listen,
		Path:   cfg.Metrics.Path,
	}
	if out.Path == "" {
		out.Path = DefaultPath
	}
	return out
}

// Params Collector 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Result Collector 输出
type Result struct {
	fx.Out

	Collector *Collector
	Reporter  pkgif.RelayReporter
	Config    Config
}

// ProvideCollector 提供收集器，同时作为中继上报器
func ProvideCollector(p Params) Result {
	c := NewCollector(p.Clock)
	return Result{
		Collector: c,
		Reporter:  c,
		Config:    ConfigFromUnified(p.UnifiedCfg),
	}
}

// registerServer 配置了监听地址时随应用启动 HTTP 服务
func registerServer(lc fx.Lifecycle, cfg Config, c *Collector) {
	if cfg.Listen == "" {
		return
	}
	srv := NewServer(c, cfg.Path)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return srv.Start(cfg.Listen)
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideCollector),
	fx.Invoke(registerServer),
)
