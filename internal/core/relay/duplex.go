package relay

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
)

// StreamCodeAborted 中止 QUIC 流读写方向时使用的错误码
const StreamCodeAborted quic.StreamErrorCode = 0x1

// Duplex 可拆分为读写两半的双向流
//
// Session 把读方向交给一个泵、写方向交给另一个泵，
// 并在会话结束时调用 Close 释放底层资源。
type Duplex interface {
	ReadHalf
	WriteHalf

	// AbortWrite 非优雅地终止写方向，阻塞中的 Write 立即返回
	AbortWrite() error

	// Close 释放底层资源
	Close() error
}

// ============================================================================
//                              TCP
// ============================================================================

// connDuplex net.Conn 适配
type connDuplex struct {
	conn    net.Conn
	aborted atomic.Bool
}

// SplitConn 将 net.Conn 适配为 Duplex
//
// 支持半关闭的连接（*net.TCPConn、*net.UnixConn）使用 shutdown；
// 其他连接在关闭写方向时整体关闭。
// TCP 连接的 AbortWrite 发送 RST，对端读到 connection reset 而不是 EOF。
func SplitConn(conn net.Conn) Duplex {
	return &connDuplex{conn: conn}
}

func (d *connDuplex) Read(p []byte) (int, error)  { return d.conn.Read(p) }
func (d *connDuplex) Write(p []byte) (int, error) { return d.conn.Write(p) }

// CloseRead 立即使阻塞中的 Read 超时返回，再关闭读方向
func (d *connDuplex) CloseRead() error {
	_ = d.conn.SetReadDeadline(time.Now())
	if cr, ok := d.conn.(interface{ CloseRead() error }); ok {
		return cr.CloseRead()
	}
	return nil
}

func (d *connDuplex) CloseWrite() error {
	if cw, ok := d.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return d.conn.Close()
}

func (d *connDuplex) AbortWrite() error {
	_ = d.conn.SetWriteDeadline(time.Now())
	tc, ok := d.conn.(*net.TCPConn)
	if !ok {
		return d.CloseWrite()
	}
	if !d.aborted.CompareAndSwap(false, true) {
		return nil
	}
	// SO_LINGER=0：close 丢弃发送缓冲并发送 RST
	_ = tc.SetLinger(0)
	return tc.Close()
}

// Close 释放连接；AbortWrite 已关闭时为空操作
func (d *connDuplex) Close() error {
	if d.aborted.Load() {
		return nil
	}
	return d.conn.Close()
}

// ============================================================================
//                              QUIC
// ============================================================================

// streamDuplex *quic.Stream 适配
//
// quic-go 不允许在 CancelWrite 之后调用 Close，也不允许 Close 与 Write 并发，
// 因此写方向的终态只记录一次。
type streamDuplex struct {
	stream *quic.Stream

	mu          sync.Mutex
	readClosed  bool
	writeClosed bool
}

// SplitStream 将 QUIC 双向流适配为 Duplex
func SplitStream(stream *quic.Stream) Duplex {
	return &streamDuplex{stream: stream}
}

func (d *streamDuplex) Read(p []byte) (int, error)  { return d.stream.Read(p) }
func (d *streamDuplex) Write(p []byte) (int, error) { return d.stream.Write(p) }

// CloseRead 发送 STOP_SENDING，阻塞中的 Read 立即返回
func (d *streamDuplex) CloseRead() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readClosed {
		return nil
	}
	d.readClosed = true
	d.stream.CancelRead(StreamCodeAborted)
	return nil
}

// CloseWrite 发送 FIN，已写入的数据仍会送达
func (d *streamDuplex) CloseWrite() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeClosed {
		return nil
	}
	d.writeClosed = true
	return d.stream.Close()
}

// AbortWrite 发送 RESET_STREAM
func (d *streamDuplex) AbortWrite() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeClosed {
		return nil
	}
	d.writeClosed = true
	d.stream.CancelWrite(StreamCodeAborted)
	return nil
}

// Close 关闭尚未关闭的方向；写方向优雅关闭
func (d *streamDuplex) Close() error {
	if err := d.CloseRead(); err != nil {
		return err
	}
	return d.CloseWrite()
}

// ============================================================================
//                              一次性包装
// ============================================================================

// onceDuplex 保证每个关闭操作最多执行一次
//
// 写方向的 CloseWrite 与 AbortWrite 互斥，先到者生效。
type onceDuplex struct {
	Duplex

	readOnce  sync.Once
	writeOnce sync.Once
	closeOnce sync.Once

	readErr  error
	writeErr error
	closeErr error
}

func guard(d Duplex) *onceDuplex {
	return &onceDuplex{Duplex: d}
}

func (o *onceDuplex) CloseRead() error {
	o.readOnce.Do(func() { o.readErr = o.Duplex.CloseRead() })
	return o.readErr
}

func (o *onceDuplex) CloseWrite() error {
	o.writeOnce.Do(func() { o.writeErr = o.Duplex.CloseWrite() })
	return o.writeErr
}

func (o *onceDuplex) AbortWrite() error {
	o.writeOnce.Do(func() { o.writeErr = o.Duplex.AbortWrite() })
	return o.writeErr
}

func (o *onceDuplex) Close() error {
	o.closeOnce.Do(func() { o.closeErr = o.Duplex.Close() })
	return o.closeErr
}
