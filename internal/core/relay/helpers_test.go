package relay

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	errReadClosed  = errors.New("read half closed")
	errWriteAbort  = errors.New("write half aborted")
	errSourceBroke = errors.New("source broke")
)

// ============================================================================
//                              泵测试替身
// ============================================================================

// chunkSource 每次 Read 最多返回 chunk 字节
type chunkSource struct {
	data       []byte
	chunk      int
	reads      int
	eofSeen    bool
	afterEOF   int
	closeReads int
	err        error
}

func (s *chunkSource) Read(p []byte) (int, error) {
	if s.eofSeen {
		s.afterEOF++
	}
	s.reads++
	if len(s.data) == 0 {
		s.eofSeen = true
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n := min(len(p), s.chunk, len(s.data))
	copy(p, s.data[:n])
	s.data = s.data[n:]
	return n, nil
}

func (s *chunkSource) CloseRead() error {
	s.closeReads++
	return nil
}

// zeroSource 先返回数据，随后返回 (0, nil)
type zeroSource struct {
	data     []byte
	zeroSeen bool
	afterEOF int
}

func (s *zeroSource) Read(p []byte) (int, error) {
	if s.zeroSeen {
		s.afterEOF++
	}
	if len(s.data) == 0 {
		s.zeroSeen = true
		return 0, nil
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *zeroSource) CloseRead() error { return nil }

// recordingSink 记录每次 Write 与半关闭次数
type recordingSink struct {
	buf         bytes.Buffer
	writes      [][]byte
	closeWrites int
	err         error
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.writes = append(s.writes, append([]byte(nil), p...))
	return s.buf.Write(p)
}

func (s *recordingSink) CloseWrite() error {
	s.closeWrites++
	return nil
}

// ============================================================================
//                              会话测试替身
// ============================================================================

// pipeDuplex 基于 io.Pipe 的双向流，支持半关闭
type pipeDuplex struct {
	r *io.PipeReader
	w *io.PipeWriter

	closeReads  atomic.Int32
	closeWrites atomic.Int32
	aborts      atomic.Int32
	closes      atomic.Int32
}

func (d *pipeDuplex) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *pipeDuplex) Write(p []byte) (int, error) { return d.w.Write(p) }

func (d *pipeDuplex) CloseRead() error {
	d.closeReads.Add(1)
	return d.r.CloseWithError(errReadClosed)
}

func (d *pipeDuplex) CloseWrite() error {
	d.closeWrites.Add(1)
	return d.w.Close()
}

func (d *pipeDuplex) AbortWrite() error {
	d.aborts.Add(1)
	return d.w.CloseWithError(errWriteAbort)
}

func (d *pipeDuplex) Close() error {
	d.closes.Add(1)
	_ = d.r.CloseWithError(errReadClosed)
	return d.w.CloseWithError(errWriteAbort)
}

// writeEnds 写方向终止次数（优雅或中止）
func (d *pipeDuplex) writeEnds() int32 {
	return d.closeWrites.Load() + d.aborts.Load()
}

// duplexPair 创建一对相连的双向流
func duplexPair() (*pipeDuplex, *pipeDuplex) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &pipeDuplex{r: ar, w: aw}, &pipeDuplex{r: br, w: bw}
}

// tcpPair 创建一对回环 TCP 连接
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	dialed, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server, ok := <-accepted
	require.True(t, ok, "accept failed")

	t.Cleanup(func() {
		_ = dialed.Close()
		_ = server.Close()
	})
	return dialed, server
}

// fakeReporter 记录会话事件
type fakeReporter struct {
	mu       sync.Mutex
	started  chan string
	finished []types.SessionStats
	errs     []error
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{started: make(chan string, 4)}
}

func (r *fakeReporter) SessionStarted(id string) {
	r.started <- id
}

func (r *fakeReporter) SessionFinished(stats types.SessionStats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, stats)
	r.errs = append(r.errs, err)
}

func (r *fakeReporter) results() ([]types.SessionStats, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.SessionStats(nil), r.finished...), append([]error(nil), r.errs...)
}
