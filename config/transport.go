package config

import (
	"fmt"
	"time"

	"github.com/dep2p/go-quictun/pkg/types"
)

// TransportConfig QUIC 传输配置
type TransportConfig struct {
	// Congestion 拥塞模式：bbr / cubic / newreno（不区分大小写）
	Congestion string `json:"congestion" toml:"congestion"`

	// KeepAlive 是否发送 keep-alive（间隔为 IdleTimeout 的一半）
	//
	// 未设置时客户端启用、服务端不启用：只需一端驱动 keep-alive。
	KeepAlive *bool `json:"keep_alive,omitempty" toml:"keep_alive"`

	// IdleTimeout 最大空闲时间，超过后认为对端不可达
	IdleTimeout Duration `json:"idle_timeout" toml:"idle_timeout"`

	// StatelessRetry 服务端在握手前要求地址验证
	StatelessRetry bool `json:"stateless_retry,omitempty" toml:"stateless_retry"`

	// ALPN 应用层协议标识，为空时使用内置值
	ALPN string `json:"alpn,omitempty" toml:"alpn"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Congestion:  "newreno",
		IdleTimeout: Duration(30 * time.Second),
	}
}

// KeepAliveFor 返回角色实际使用的 keep-alive 开关
func (c TransportConfig) KeepAliveFor(role types.Role) bool {
	if c.KeepAlive != nil {
		return *c.KeepAlive
	}
	return role == types.RoleClient
}

// Validate 验证传输配置
//
// 拥塞模式名称由传输层解析；这里只检查必须在任何 I/O 之前拒绝的值。
func (c TransportConfig) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("%w: transport.idle_timeout must be positive, got %s", types.ErrConfig, c.IdleTimeout)
	}
	return nil
}
