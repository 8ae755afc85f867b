package relay

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/internal/util/logger"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
	"github.com/dep2p/go-quictun/pkg/types"
)

var log = logger.Logger("relay")

// SessionOption 会话选项
type SessionOption func(*Session)

// WithID 指定会话标识，默认随机 UUID
func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock 指定计时时钟（测试用 clock.NewMock）
func WithClock(c clock.Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithReporter 指定会话结果上报
func WithReporter(r pkgif.RelayReporter) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithBufferSize 指定泵的读缓冲区大小
func WithBufferSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// Session 一条 QUIC 流与一条 TCP 连接之间的中继会话
//
// Forward 泵读取 peer、解码后写入 local；Reverse 泵读取 local、编码后写入 peer。
// 每个半流在会话期间只归一个泵所有。
type Session struct {
	id       string
	peer     *onceDuplex
	local    *onceDuplex
	codec    compress.Codec
	clock    clock.Clock
	reporter pkgif.RelayReporter
	bufSize  int

	forward Counters
	reverse Counters

	started atomic.Bool
}

// NewSession 创建中继会话；codec 为 nil 时不压缩
func NewSession(peer, local Duplex, codec compress.Codec, opts ...SessionOption) *Session {
	if codec == nil {
		codec, _ = compress.New(compress.ModeNone)
	}
	s := &Session{
		id:       uuid.NewString(),
		peer:     guard(peer),
		local:    guard(local),
		codec:    codec,
		clock:    clock.New(),
		reporter: pkgif.NopRelayReporter{},
		bufSize:  DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID 返回会话标识
func (s *Session) ID() string {
	return s.id
}

// Snapshot 返回两个方向的当前计数
func (s *Session) Snapshot() (forward, reverse types.TransferSnapshot) {
	return s.forward.Snapshot(), s.reverse.Snapshot()
}

type pumpResult struct {
	dir types.Direction
	err error
}

// Run 运行会话直到任一方向结束、出错或 ctx 取消
//
// 先结束的泵决定结果；另一个泵被中止并等待其退出，
// 中止引起的错误不上报。返回值始终包含两个方向的最终计数。
func (s *Session) Run(ctx context.Context) (types.SessionStats, error) {
	if !s.started.CompareAndSwap(false, true) {
		return types.SessionStats{}, ErrSessionStarted
	}

	start := s.clock.Now()
	s.reporter.SessionStarted(s.id)
	log.Debug("relay session started", "session", s.id, "compression", s.codec.Mode())

	fwd := s.newPump(types.DirForward, s.peer, s.local, OpDecode, &s.forward)
	rev := s.newPump(types.DirReverse, s.local, s.peer, OpEncode, &s.reverse)

	done := make(chan pumpResult, 2)
	for _, p := range []*Pump{fwd, rev} {
		go func(p *Pump) {
			done <- pumpResult{dir: p.dir, err: p.Run()}
		}(p)
	}

	var (
		err    error
		winner types.Direction
	)
	pending := 2

	select {
	case first := <-done:
		pending--
		err = first.err
		winner = first.dir
		if first.dir == types.DirForward {
			abort(s.local, s.peer)
		} else {
			abort(s.peer, s.local)
		}
	case <-ctx.Done():
		err = fmt.Errorf("relay session %s: %w", s.id, ctx.Err())
		abort(s.peer, s.local)
		abort(s.local, s.peer)
	}

	for ; pending > 0; pending-- {
		r := <-done
		if r.err != nil {
			log.Debug("aborted pump exited", "session", s.id, "dir", r.dir, "err", r.err)
		}
	}

	if cerr := multierr.Combine(s.peer.Close(), s.local.Close()); cerr != nil {
		log.Debug("close session streams", "session", s.id, "err", cerr)
	}

	stats := types.SessionStats{
		ID:          s.id,
		Compression: s.codec.Mode().String(),
		Forward:     s.forward.Snapshot(),
		Reverse:     s.reverse.Snapshot(),
		Winner:      winner,
		StartedAt:   start,
		Duration:    s.clock.Since(start),
	}
	s.reporter.SessionFinished(stats, err)
	logResult(stats, err)

	return stats, err
}

func (s *Session) newPump(dir types.Direction, src ReadHalf, dst WriteHalf, op Op, c *Counters) *Pump {
	p := NewPump(dir, src, dst, s.codec, op, c)
	p.bufSize = s.bufSize
	return p
}

// abort 中止仍在运行的泵：关闭其读方向，非优雅地终止其写方向
func abort(src, dst *onceDuplex) {
	_ = src.CloseRead()
	_ = dst.AbortWrite()
}

func logResult(stats types.SessionStats, err error) {
	attrs := []any{
		"session", stats.ID,
		"compression", stats.Compression,
		"forward_raw", stats.Forward.RawBytes,
		"forward_wire", stats.Forward.WireBytes,
		"reverse_raw", stats.Reverse.RawBytes,
		"reverse_wire", stats.Reverse.WireBytes,
		"duration", stats.Duration,
	}

	switch {
	case err == nil:
		log.Info("relay session finished", attrs...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Debug("relay session cancelled", append(attrs, "err", err)...)
	case errors.Is(err, types.ErrDecode):
		log.Warn("relay session: corrupt data from peer", append(attrs, "err", err)...)
	default:
		log.Warn("relay session: stream failure", append(attrs, "err", err)...)
	}
}
