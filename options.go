package quictun

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-quictun/config"
	"github.com/dep2p/go-quictun/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置，与 configFile 互斥
	config     *config.Config
	configFile string

	// 环境变量查找函数，为 nil 时不读取环境变量
	lookupEnv config.LookupFunc

	// 在文件与环境变量之后应用的覆盖
	overrides []func(*config.Config)

	clock         clock.Clock
	userFxOptions []fx.Option
}

// WithConfig 使用给定配置（复制后使用）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", types.ErrConfig)
		}
		if o.configFile != "" {
			return fmt.Errorf("%w: WithConfig conflicts with WithConfigFile", types.ErrConfig)
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithConfigFile 从 JSON 或 TOML 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if o.config != nil {
			return fmt.Errorf("%w: WithConfigFile conflicts with WithConfig", types.ErrConfig)
		}
		o.configFile = path
		return nil
	}
}

// WithEnv 使用 lookup 读取 QUICTUN_ 环境变量覆盖配置
//
// 通常传入 os.LookupEnv。
func WithEnv(lookup config.LookupFunc) Option {
	return func(o *options) error {
		o.lookupEnv = lookup
		return nil
	}
}

// WithMode 设置隧道模式（client / server）
func WithMode(mode string) Option {
	return withOverride(func(c *config.Config) { c.Mode = mode })
}

// WithCompression 设置压缩模式
func WithCompression(name string) Option {
	return withOverride(func(c *config.Config) { c.Relay.Compression = name })
}

// WithMetricsListen 设置指标 HTTP 监听地址，空字符串关闭服务
func WithMetricsListen(addr string) Option {
	return withOverride(func(c *config.Config) { c.Metrics.Listen = addr })
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithFxOptions 追加用户 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}

func withOverride(fn func(*config.Config)) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, fn)
		return nil
	}
}

// resolve 按 基础配置 → 环境变量 → 覆盖 的顺序生成最终配置并验证
func (o *options) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case o.config != nil:
		cfg = config.CloneConfig(o.config)
	case o.configFile != "":
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.NewConfig()
	}

	if o.lookupEnv != nil {
		if err := config.ApplyEnv(cfg, o.lookupEnv); err != nil {
			return nil, err
		}
	}
	for _, fn := range o.overrides {
		fn(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
