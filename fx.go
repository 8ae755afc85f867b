package quictun

import (
	"os"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/internal/core/forward"
	"github.com/dep2p/go-quictun/internal/core/metrics"
	"github.com/dep2p/go-quictun/internal/core/relay"
	sectls "github.com/dep2p/go-quictun/internal/core/security/tls"
	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
)

// EnvFxDebug 设置为 1 时输出 Fx 依赖注入日志
const EnvFxDebug = "QUICTUN_FX_DEBUG"

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. security/tls: 证书库
//  2. transport/quic: 传输策略与端点（构建时绑定 UDP）
//  3. metrics: 收集器，配置了监听地址时启动 HTTP 服务
//  4. relay: 会话工厂（上报到收集器）
//  5. forward: 接受循环，随应用启动与停止
func buildFxApp(cfg *config.Config, o *options, t *Tunnel) *fx.App {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置注入
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 组件模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		sectls.Module,
		tquic.Module,
		metrics.Module,
		relay.Module,
		forward.Module,
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. Tunnel 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectTunnelComponents(t)))

	// ════════════════════════════════════════════════════════════════════════
	// 5. Fx 日志
	// ════════════════════════════════════════════════════════════════════════
	zl := zap.NewNop()
	if os.Getenv(EnvFxDebug) == "1" {
		if dev, err := zap.NewDevelopment(); err == nil {
			zl = dev
		}
	}
	modules = append(modules, fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zl}
	}))

	return fx.New(modules...)
}

// tunnelInjectParams Tunnel 组件注入参数
type tunnelInjectParams struct {
	fx.In

	Forwarder *forward.Forwarder
	Endpoint  *tquic.Endpoint
	Factory   *relay.Factory
	Collector *metrics.Collector
	Store     *sectls.FileCertStore
}

// injectTunnelComponents 创建 Tunnel 组件注入函数
func injectTunnelComponents(t *Tunnel) interface{} {
	return func(params tunnelInjectParams) {
		t.forwarder = params.Forwarder
		t.endpoint = params.Endpoint
		t.factory = params.Factory
		t.collector = params.Collector
		t.store = params.Store
	}
}
