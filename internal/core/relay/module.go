package relay

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/internal/core/compress"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

// Config 中继配置
type Config struct {
	// Compression 压缩模式，两端必须一致
	Compression compress.Mode

	// BufferSize 泵的读缓冲区大小
	BufferSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Compression: compress.ModeNone,
		BufferSize:  DefaultBufferSize,
	}
}

// ConfigFromUnified 从统一配置创建中继配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	out := DefaultConfig()
	if cfg == nil {
		return out, nil
	}
	if cfg.Relay.Compression != "" {
		mode, err := compress.ParseMode(cfg.Relay.Compression)
		if err != nil {
			return Config{}, err
		}
		out.Compression = mode
	}
	if cfg.Relay.BufferSize > 0 {
		out.BufferSize = cfg.Relay.BufferSize
	}
	return out, nil
}

// Params Factory 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Reporter   pkgif.RelayReporter `optional:"true"`
	Clock      clock.Clock         `optional:"true"`
}

// ProvideFactory 提供会话工厂
func ProvideFactory(p Params) (*Factory, error) {
	cfg, err := ConfigFromUnified(p.UnifiedCfg)
	if err != nil {
		return nil, err
	}
	return NewFactory(cfg, p.Reporter, p.Clock)
}

// Module 是 relay 的 Fx 模块
var Module = fx.Module("relay",
	fx.Provide(ProvideFactory),
)
