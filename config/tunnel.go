package config

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/dep2p/go-quictun/pkg/types"
)

// TunnelConfig 隧道地址配置
//
// 客户端：监听 Local 上的 TCP 连接，每个连接拨号 Remote。
// 服务端：在 Listen 上接受 QUIC 连接，每条流拨号 Target。
type TunnelConfig struct {
	// Local 客户端 TCP 监听地址
	Local string `json:"local,omitempty" toml:"local"`

	// Remote 客户端拨号的 QUIC 服务端地址（host:port）
	Remote string `json:"remote,omitempty" toml:"remote"`

	// ServerName 校验服务端证书时使用的名称，默认取 Remote 的主机部分
	ServerName string `json:"server_name,omitempty" toml:"server_name"`

	// Listen 服务端 QUIC 监听地址（ip:port）
	Listen string `json:"listen,omitempty" toml:"listen"`

	// Target 服务端拨号的 TCP 目标地址
	Target string `json:"target,omitempty" toml:"target"`

	// DialTimeout 拨号超时（QUIC 握手或 TCP 连接）
	DialTimeout Duration `json:"dial_timeout,omitempty" toml:"dial_timeout"`
}

// DefaultTunnelConfig 返回默认地址配置
func DefaultTunnelConfig() TunnelConfig {
	return TunnelConfig{
		Local:       "127.0.0.1:8000",
		Listen:      "0.0.0.0:4433",
		DialTimeout: Duration(10 * time.Second),
	}
}

// Validate 按角色验证地址
func (c TunnelConfig) Validate(role types.Role) error {
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: tunnel.dial_timeout must not be negative", types.ErrConfig)
	}

	if role == types.RoleClient {
		if err := validateHostPort("tunnel.local", c.Local); err != nil {
			return err
		}
		return validateHostPort("tunnel.remote", c.Remote)
	}

	if c.Listen == "" {
		return fmt.Errorf("%w: tunnel.listen is required in server mode", types.ErrConfig)
	}
	if _, err := netip.ParseAddrPort(c.Listen); err != nil {
		return fmt.Errorf("%w: tunnel.listen %q: %v", types.ErrConfig, c.Listen, err)
	}
	return validateHostPort("tunnel.target", c.Target)
}

func validateHostPort(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s is required", types.ErrConfig, field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%w: %s %q: %v", types.ErrConfig, field, addr, err)
	}
	return nil
}
