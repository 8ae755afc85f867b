package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/dep2p/go-quictun/internal/util/logger"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
	"github.com/dep2p/go-quictun/pkg/types"
)

var log = logger.Logger("transport/quic")

// DefaultALPN 隧道协议的 ALPN 标识
const DefaultALPN = "quictun/1"

// Endpoint QUIC 端点
//
// 独占一个 UDP socket。服务端在构造时开始监听；客户端只拨号。
type Endpoint struct {
	role     types.Role
	policy   Policy
	tlsConf  *tls.Config
	quicConf *quic.Config

	// serverName 覆盖拨号时校验证书使用的名称
	serverName string

	udpConn   *net.UDPConn
	transport *quic.Transport
	listener  *quic.Listener

	mu     sync.Mutex
	closed bool
}

// BuildClientEndpoint 构建客户端端点，绑定临时通配地址
func BuildClientEndpoint(store pkgif.CertStore, paths pkgif.CertPaths, policy Policy, alpn []string) (*Endpoint, error) {
	tlsConf, _, err := store.ClientConfig(paths)
	if err != nil {
		return nil, err
	}
	if err := attachALPN(tlsConf, alpn); err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: udp wildcard: %w", ErrBind, err)
	}

	e := &Endpoint{
		role:      types.RoleClient,
		policy:    policy,
		tlsConf:   tlsConf,
		quicConf:  policy.QUICConfig(),
		udpConn:   conn,
		transport: &quic.Transport{Conn: conn},
	}

	log.Info("client endpoint ready", "local", conn.LocalAddr(), "policy", policy)
	return e, nil
}

// BuildServerEndpoint 构建服务端端点并开始监听
//
// 禁用单向流；statelessRetry 为 true 时在握手前要求地址验证（多一个往返）。
func BuildServerEndpoint(store pkgif.CertStore, paths pkgif.CertPaths, policy Policy, alpn []string, listenAddr string, statelessRetry bool) (*Endpoint, error) {
	addr, err := netip.ParseAddrPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %q: %w", ErrInvalidAddress, listenAddr, err)
	}

	tlsConf, err := store.ServerConfig(paths)
	if err != nil {
		return nil, err
	}
	if err := attachALPN(tlsConf, alpn); err != nil {
		return nil, err
	}

	quicConf := policy.QUICConfig()
	quicConf.MaxIncomingUniStreams = -1
	quicConf.MaxIncomingStreams = 1

	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBind, listenAddr, err)
	}

	tr := &quic.Transport{Conn: conn}
	if statelessRetry {
		tr.VerifySourceAddress = func(net.Addr) bool { return true }
	}

	ln, err := tr.Listen(tlsConf, quicConf)
	if err != nil {
		_ = tr.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: listen %s: %w", types.ErrTransport, listenAddr, err)
	}

	e := &Endpoint{
		role:      types.RoleServer,
		policy:    policy,
		tlsConf:   tlsConf,
		quicConf:  quicConf,
		udpConn:   conn,
		transport: tr,
		listener:  ln,
	}

	log.Info("server endpoint listening",
		"addr", conn.LocalAddr(),
		"stateless_retry", statelessRetry,
		"policy", policy)
	return e, nil
}

func attachALPN(tlsConf *tls.Config, alpn []string) error {
	if len(alpn) == 0 {
		return fmt.Errorf("%w: empty ALPN list", types.ErrConfig)
	}
	tlsConf.NextProtos = append([]string(nil), alpn...)
	return nil
}

// Role 返回端点角色
func (e *Endpoint) Role() types.Role {
	return e.role
}

// Policy 返回端点的传输策略
func (e *Endpoint) Policy() Policy {
	return e.policy
}

// SetServerName 设置校验服务端证书使用的名称，须在 Dial 之前调用
func (e *Endpoint) SetServerName(name string) {
	e.serverName = name
}

// LocalAddr 返回绑定的本地地址
func (e *Endpoint) LocalAddr() net.Addr {
	return e.udpConn.LocalAddr()
}

// Dial 拨号远端端点
//
// 未调用 SetServerName 时使用地址中的主机名校验服务端证书。
func (e *Endpoint) Dial(ctx context.Context, addr string) (*quic.Conn, error) {
	if e.isClosed() {
		return nil, ErrEndpointClosed
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: remote %q: %w", ErrInvalidAddress, addr, err)
	}
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %w", types.ErrTransport, addr, err)
	}

	tlsConf := e.tlsConf.Clone()
	switch {
	case e.serverName != "":
		tlsConf.ServerName = e.serverName
	case tlsConf.ServerName == "":
		tlsConf.ServerName = host
	}

	conn, err := e.transport.Dial(ctx, raddr, tlsConf, e.quicConf)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", types.ErrTransport, addr, err)
	}

	log.Debug("quic connection established", "remote", conn.RemoteAddr(), "alpn", conn.ConnectionState().TLS.NegotiatedProtocol)
	return conn, nil
}

// Accept 接受下一个 QUIC 连接（仅服务端）
func (e *Endpoint) Accept(ctx context.Context) (*quic.Conn, error) {
	if e.listener == nil {
		return nil, ErrNotListening
	}
	if e.isClosed() {
		return nil, ErrEndpointClosed
	}

	conn, err := e.listener.Accept(ctx)
	if err != nil {
		if e.isClosed() || errors.Is(err, quic.ErrServerClosed) {
			return nil, ErrEndpointClosed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: accept: %w", types.ErrTransport, err)
	}

	log.Debug("quic connection accepted", "remote", conn.RemoteAddr())
	return conn, nil
}

func (e *Endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close 关闭监听器、所有连接和 UDP socket
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	var err error
	if e.listener != nil {
		err = multierr.Append(err, ignoreClosed(e.listener.Close()))
	}
	err = multierr.Append(err, ignoreClosed(e.transport.Close()))
	err = multierr.Append(err, ignoreClosed(e.udpConn.Close()))
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, quic.ErrServerClosed) || errors.Is(err, quic.ErrTransportClosed) {
		return nil
	}
	return err
}
