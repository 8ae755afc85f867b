package forward

import (
	"context"
	"errors"
	"time"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-quictun/internal/core/relay"
	tquic "github.com/dep2p/go-quictun/internal/core/transport/quic"
)

// serveServer 接受 QUIC 连接，每个连接一个会话
func (f *Forwarder) serveServer(ctx context.Context, g *errgroup.Group) error {
	log.Info("accepting quic connections", "listen", f.endpoint.LocalAddr(), "target", f.cfg.Target, "compression", f.factory.Mode())

	for {
		conn, err := f.endpoint.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, tquic.ErrEndpointClosed) {
				return nil
			}
			return err
		}

		g.Go(func() error {
			f.handleServer(ctx, conn)
			return nil
		})
	}
}

// handleServer 接受连接上的唯一一条流，校验前导后拨号目标
func (f *Forwarder) handleServer(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr()

	acceptCtx, cancel := f.dialContext(ctx)
	stream, err := conn.AcceptStream(acceptCtx)
	cancel()
	if err != nil {
		log.Debug("no stream from peer", "remote", remote, "err", err)
		_ = conn.CloseWithError(tquic.CodeProtocolError, "no stream")
		return
	}

	if f.cfg.DialTimeout > 0 {
		_ = stream.SetReadDeadline(time.Now().Add(f.cfg.DialTimeout))
	}
	_, err = readPreamble(stream, f.factory.Mode())
	_ = stream.SetReadDeadline(time.Time{})
	if err != nil {
		code := tquic.CodeProtocolError
		if errors.Is(err, ErrCompressionMismatch) {
			code = tquic.CodeCompressionMismatch
		}
		log.Warn("rejecting stream", "remote", remote, "err", err)
		stream.CancelRead(relay.StreamCodeAborted)
		stream.CancelWrite(relay.StreamCodeAborted)
		_ = conn.CloseWithError(code, err.Error())
		return
	}

	dialCtx, cancel := f.dialContext(ctx)
	tcp, err := f.dialer.DialContext(dialCtx, "tcp", f.cfg.Target)
	cancel()
	if err != nil {
		log.Warn("dial target failed", "remote", remote, "target", f.cfg.Target, "err", err)
		stream.CancelRead(relay.StreamCodeAborted)
		stream.CancelWrite(relay.StreamCodeAborted)
		_ = conn.CloseWithError(tquic.CodeTargetUnreachable, "target unreachable")
		return
	}

	log.Debug("tunnel opened", "remote", remote, "target", tcp.RemoteAddr())
	f.runSession(ctx, conn, stream, tcp)
}
