package interfaces

import (
	"crypto/tls"
	"crypto/x509"
)

// CertPaths TLS 材料的文件路径（PEM）
type CertPaths struct {
	// CA 用于校验对端证书的 CA 证书
	CA string

	// Cert 本端证书链
	Cert string

	// Key 本端私钥
	Key string
}

// CertStore 构建 TLS 上下文
//
// 失败时返回包装 types.ErrTLS 的错误。
type CertStore interface {
	// ClientConfig 客户端 TLS 配置及其信任根
	ClientConfig(paths CertPaths) (*tls.Config, *x509.CertPool, error)

	// ServerConfig 服务端 TLS 配置（要求并校验客户端证书）
	ServerConfig(paths CertPaths) (*tls.Config, error)
}
