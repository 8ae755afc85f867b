package forward

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-quictun/internal/core/relay"
	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
	"github.com/dep2p/go-quictun/internal/util/logger"
	"github.com/dep2p/go-quictun/pkg/types"
)

var log = logger.Logger("forward")

// Forwarder 按端点角色运行客户端或服务端接受循环
type Forwarder struct {
	cfg      Config
	endpoint *tquic.Endpoint
	factory  *relay.Factory
	dialer   *net.Dialer

	active atomic.Int64

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	serveErr error
}

// New 创建转发器；cfg.Role 必须与端点角色一致
func New(cfg Config, endpoint *tquic.Endpoint, factory *relay.Factory) (*Forwarder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if endpoint.Role() != cfg.Role {
		return nil, fmt.Errorf("%w: config %s, endpoint %s", ErrRoleMismatch, cfg.Role, endpoint.Role())
	}
	return &Forwarder{
		cfg:      cfg,
		endpoint: endpoint,
		factory:  factory,
		dialer:   &net.Dialer{},
	}, nil
}

// Role 返回转发器角色
func (f *Forwarder) Role() types.Role {
	return f.cfg.Role
}

// Active 返回运行中的会话数
func (f *Forwarder) Active() int {
	return int(f.active.Load())
}

// Listen 客户端绑定本地 TCP 监听地址；服务端无操作
//
// 重复调用返回同一监听器。
func (f *Forwarder) Listen() error {
	if f.cfg.Role != types.RoleClient {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", f.cfg.Local)
	if err != nil {
		return fmt.Errorf("%w: listen tcp %s: %w", tquic.ErrBind, f.cfg.Local, err)
	}
	f.listener = ln
	log.Info("accepting tcp connections", "local", ln.Addr(), "remote", f.cfg.Remote, "compression", f.factory.Mode())
	return nil
}

// LocalAddr 返回客户端 TCP 监听地址，未监听时为 nil
func (f *Forwarder) LocalAddr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Serve 运行接受循环直到 ctx 取消或监听失败
//
// 返回前等待所有会话退出；ctx 取消时会话随之中止。
func (f *Forwarder) Serve(ctx context.Context) error {
	if err := f.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if f.cfg.Role == types.RoleClient {
			return f.serveClient(gctx, g)
		}
		return f.serveServer(gctx, g)
	})
	return g.Wait()
}

// Start 在后台运行 Serve；客户端监听失败时立即返回错误
func (f *Forwarder) Start() error {
	if err := f.Listen(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		err := f.Serve(ctx)
		if err != nil {
			log.Error("forwarder stopped", "role", f.cfg.Role, "err", err)
		}
		f.mu.Lock()
		f.serveErr = err
		f.mu.Unlock()
	}()
	return nil
}

// Stop 停止接受循环并中止运行中的会话，等待退出或 ctx 到期
func (f *Forwarder) Stop(ctx context.Context) error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel == nil {
		return f.closeListener()
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serveErr
}

func (f *Forwarder) closeListener() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	err := f.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// dialContext 为拨号附加超时
func (f *Forwarder) dialContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.DialTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.cfg.DialTimeout)
}

// runSession 运行中继会话并关闭 QUIC 连接
func (f *Forwarder) runSession(ctx context.Context, conn *quic.Conn, stream *quic.Stream, tcp net.Conn) {
	f.active.Add(1)
	defer f.active.Add(-1)

	session := f.factory.NewSession(relay.SplitStream(stream), relay.SplitConn(tcp))
	stats, err := session.Run(ctx)

	// 本端先写完时等待对端确认收到（对端关闭连接）再关闭，避免未确认数据被丢弃
	if err == nil && stats.Winner == types.DirReverse {
		f.linger(ctx, conn)
	}
	_ = conn.CloseWithError(closeCode(err), "")
}

func (f *Forwarder) linger(ctx context.Context, conn *quic.Conn) {
	if f.cfg.Linger <= 0 {
		return
	}
	t := time.NewTimer(f.cfg.Linger)
	defer t.Stop()

	select {
	case <-conn.Context().Done():
	case <-ctx.Done():
	case <-t.C:
	}
}

// closeCode 把会话结果映射为连接关闭码
func closeCode(err error) quic.ApplicationErrorCode {
	switch {
	case err == nil:
		return tquic.CodeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tquic.CodeShutdown
	case errors.Is(err, types.ErrDecode):
		return tquic.CodeProtocolError
	default:
		return tquic.CodeRelayError
	}
}
