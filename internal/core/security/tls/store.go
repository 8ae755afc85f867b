package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-quictun/internal/util/logger"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

var log = logger.Logger("security/tls")

// FileCertStore 从 PEM 文件加载 mTLS 配置
type FileCertStore struct {
	watch bool

	mu        sync.Mutex
	reloaders []*keyPairReloader
	closed    bool
}

// 确保实现接口
var _ pkgif.CertStore = (*FileCertStore)(nil)

// StoreOption 证书库选项
type StoreOption func(*FileCertStore)

// WithWatch 证书文件变化时自动重新加载
func WithWatch(enabled bool) StoreOption {
	return func(s *FileCertStore) {
		s.watch = enabled
	}
}

// NewFileCertStore 创建证书库
func NewFileCertStore(opts ...StoreOption) *FileCertStore {
	s := &FileCertStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClientConfig 构建客户端 TLS 配置
//
// 返回的 CA 池与配置中的 RootCAs 相同。
func (s *FileCertStore) ClientConfig(paths pkgif.CertPaths) (*tls.Config, *x509.CertPool, error) {
	pool, err := loadCAPool(paths.CA)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.keyPair(paths)
	if err != nil {
		return nil, nil, err
	}

	conf := &tls.Config{
		MinVersion:           tls.VersionTLS13,
		RootCAs:              pool,
		GetClientCertificate: r.clientCertificate,
	}
	return conf, pool, nil
}

// ServerConfig 构建服务端 TLS 配置，要求并校验客户端证书
func (s *FileCertStore) ServerConfig(paths pkgif.CertPaths) (*tls.Config, error) {
	pool, err := loadCAPool(paths.CA)
	if err != nil {
		return nil, err
	}
	r, err := s.keyPair(paths)
	if err != nil {
		return nil, err
	}

	conf := &tls.Config{
		MinVersion:     tls.VersionTLS13,
		ClientCAs:      pool,
		ClientAuth:     tls.RequireAndVerifyClientCert,
		GetCertificate: r.certificate,
	}
	return conf, nil
}

// keyPair 加载本端证书，按需启动文件监听
func (s *FileCertStore) keyPair(paths pkgif.CertPaths) (*keyPairReloader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	r, err := newKeyPairReloader(paths.Cert, paths.Key)
	if err != nil {
		return nil, err
	}
	if s.watch {
		if err := r.watch(); err != nil {
			return nil, err
		}
		s.reloaders = append(s.reloaders, r)
		log.Debug("watching certificate files", "cert", paths.Cert, "key", paths.Key)
	}
	return r, nil
}

// Close 停止所有文件监听；已构建的配置仍可使用最后加载的证书
func (s *FileCertStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	for _, r := range s.reloaders {
		err = multierr.Append(err, r.close())
	}
	s.reloaders = nil
	return err
}

func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLoadCA, path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w: %s", ErrNoCACerts, path)
	}
	return pool, nil
}
