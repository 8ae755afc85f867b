package tls

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

// Params 证书库依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Result 证书库输出
type Result struct {
	fx.Out

	Store     *FileCertStore
	CertStore pkgif.CertStore
}

// ProvideCertStore 提供证书库，应用停止时停止文件监听
func ProvideCertStore(p Params) Result {
	var opts []StoreOption
	if p.UnifiedCfg != nil {
		opts = append(opts, WithWatch(p.UnifiedCfg.Security.WatchFiles))
	}
	store := NewFileCertStore(opts...)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return store.Close()
		},
	})
	return Result{Store: store, CertStore: store}
}

// Module 是 security/tls 的 Fx 模块
var Module = fx.Module("security/tls",
	fx.Provide(ProvideCertStore),
)
