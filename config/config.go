// Package config 提供 quictun 的统一配置
//
// 主 Config 嵌入各组件的子配置，每个子配置在独立文件中定义。
// 配置来源按优先级从低到高：默认值 → 配置文件（JSON 或 TOML）→ 环境变量 → 命令行参数。
//
// 使用示例：
//
//	cfg, err := config.LoadFile("quictun.toml")
//	if err != nil {
//	    return err
//	}
//	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

// 端点角色名称
const (
	ModeClient = "client"
	ModeServer = "server"
)

// Config 是 quictun 的完整配置
//
//   - Mode: 端点角色（client / server）
//   - Tunnel: 本地与远端地址
//   - Security: mTLS 证书路径
//   - Transport: QUIC 传输策略
//   - Relay: 压缩与中继缓冲
//   - Metrics: Prometheus 导出
type Config struct {
	// Mode 端点角色
	Mode string `json:"mode" toml:"mode"`

	// Tunnel 地址配置
	Tunnel TunnelConfig `json:"tunnel" toml:"tunnel"`

	// Security 证书配置
	Security SecurityConfig `json:"security" toml:"security"`

	// Transport 传输配置
	Transport TransportConfig `json:"transport" toml:"transport"`

	// Relay 中继配置
	Relay RelayConfig `json:"relay" toml:"relay"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`
}

// NewConfig 创建默认配置（客户端角色）
func NewConfig() *Config {
	return &Config{
		Mode:      ModeClient,
		Tunnel:    DefaultTunnelConfig(),
		Security:  DefaultSecurityConfig(),
		Transport: DefaultTransportConfig(),
		Relay:     DefaultRelayConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 所有错误都包装 types.ErrConfig。
func (c *Config) Validate() error {
	if c == nil {
		return errNilConfig
	}
	role, err := c.Role()
	if err != nil {
		return err
	}
	if err := c.Tunnel.Validate(role); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}
