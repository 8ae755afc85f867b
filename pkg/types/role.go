package types

import (
	"fmt"
	"strings"
)

// Role 隧道端点角色
type Role int

const (
	// RoleClient 接受本地 TCP 连接并拨号远端 QUIC 端点
	RoleClient Role = iota
	// RoleServer 接受 QUIC 连接并拨号目标 TCP 服务
	RoleServer
)

// ParseRole 解析角色名称（不区分大小写）
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return RoleClient, nil
	case "server":
		return RoleServer, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrConfig, s)
}

// String 返回角色名称
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	}
	return fmt.Sprintf("role(%d)", int(r))
}
