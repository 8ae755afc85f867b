package config

import (
	"fmt"

	"github.com/dep2p/go-quictun/pkg/types"
)

// SecurityConfig mTLS 证书配置（PEM 文件路径）
//
// 两端都使用同一 CA 签发的证书：客户端校验服务端，服务端要求并校验客户端证书。
type SecurityConfig struct {
	// CA 校验对端证书的 CA 证书
	CA string `json:"ca" toml:"ca"`

	// Cert 本端证书链
	Cert string `json:"cert" toml:"cert"`

	// Key 本端私钥
	Key string `json:"key" toml:"key"`

	// WatchFiles 证书文件变化时自动重新加载
	WatchFiles bool `json:"watch_files,omitempty" toml:"watch_files"`
}

// DefaultSecurityConfig 返回默认证书配置
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		CA:   "ca.pem",
		Cert: "cert.pem",
		Key:  "key.pem",
	}
}

// Validate 验证证书路径
func (c SecurityConfig) Validate() error {
	for field, path := range map[string]string{
		"security.ca":   c.CA,
		"security.cert": c.Cert,
		"security.key":  c.Key,
	} {
		if path == "" {
			return fmt.Errorf("%w: %s is required", types.ErrConfig, field)
		}
	}
	return nil
}
