package forward

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
	"github.com/dep2p/go-quictun/pkg/types"
)

// serveClient 接受本地 TCP 连接，每个连接一条 QUIC 连接
func (f *Forwarder) serveClient(ctx context.Context, g *errgroup.Group) error {
	f.mu.Lock()
	ln := f.listener
	f.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		tcp, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Warn("tcp accept timeout", "err", err)
				continue
			}
			return fmt.Errorf("%w: accept tcp: %w", types.ErrIO, err)
		}

		g.Go(func() error {
			f.handleClient(ctx, tcp)
			return nil
		})
	}
}

// handleClient 为一个 TCP 连接拨号服务端并运行会话
func (f *Forwarder) handleClient(ctx context.Context, tcp net.Conn) {
	peer := tcp.RemoteAddr()

	dialCtx, cancel := f.dialContext(ctx)
	conn, err := f.endpoint.Dial(dialCtx, f.cfg.Remote)
	cancel()
	if err != nil {
		log.Warn("dial remote failed", "tcp_peer", peer, "remote", f.cfg.Remote, "err", err)
		_ = tcp.Close()
		return
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		log.Warn("open stream failed", "tcp_peer", peer, "remote", f.cfg.Remote, "err", err)
		_ = conn.CloseWithError(tquic.CodeShutdown, "")
		_ = tcp.Close()
		return
	}

	if err := writePreamble(stream, f.factory.Mode()); err != nil {
		log.Warn("send preamble failed", "tcp_peer", peer, "err", err)
		_ = conn.CloseWithError(tquic.CodeRelayError, "")
		_ = tcp.Close()
		return
	}

	log.Debug("tunnel opened", "tcp_peer", peer, "remote", conn.RemoteAddr())
	f.runSession(ctx, conn, stream, tcp)

	if reason := rejection(conn); reason != "" {
		log.Warn("server closed tunnel", "tcp_peer", peer, "reason", reason)
	}
}

// rejection 返回服务端拒绝连接的原因，正常关闭时为空
func rejection(conn *quic.Conn) string {
	var appErr *quic.ApplicationError
	if !errors.As(context.Cause(conn.Context()), &appErr) || !appErr.Remote {
		return ""
	}
	switch appErr.ErrorCode {
	case tquic.CodeCompressionMismatch:
		return "compression mismatch"
	case tquic.CodeTargetUnreachable:
		return "target unreachable"
	case tquic.CodeProtocolError:
		return "protocol error"
	default:
		return ""
	}
}
