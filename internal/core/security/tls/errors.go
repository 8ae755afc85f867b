package tls

import (
	"fmt"

	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	// ErrLoadCA CA 证书文件无法读取
	ErrLoadCA = fmt.Errorf("%w: load CA", types.ErrTLS)

	// ErrNoCACerts CA 文件中没有可用的 PEM 证书
	ErrNoCACerts = fmt.Errorf("%w: no certificates in CA file", types.ErrTLS)

	// ErrLoadKeyPair 证书或私钥无法加载，或两者不匹配
	ErrLoadKeyPair = fmt.Errorf("%w: load key pair", types.ErrTLS)

	// ErrStoreClosed 证书库已关闭
	ErrStoreClosed = fmt.Errorf("%w: cert store closed", types.ErrTLS)
)
