package relay

import (
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

// DefaultBufferSize 泵的读缓冲区大小
const DefaultBufferSize = 8 * 1024

// Op 泵对记录施加的变换
type Op int

const (
	// OpEncode 读取明文，写出编码后的记录
	OpEncode Op = iota
	// OpDecode 读取完整记录，写出解码后的明文
	OpDecode
)

// String 返回变换名称
func (o Op) String() string {
	if o == OpEncode {
		return "encode"
	}
	return "decode"
}

// ReadHalf 双向流的读方向
type ReadHalf interface {
	io.Reader

	// CloseRead 终止读方向，阻塞中的 Read 必须尽快返回
	CloseRead() error
}

// WriteHalf 双向流的写方向
type WriteHalf interface {
	io.Writer

	// CloseWrite 半关闭：向对端发送流结束
	CloseWrite() error
}

// Pump 单向搬运：src → transform → dst
//
// src 结束后向 dst 发送一次半关闭并退出，不会在零长度读之后继续读取。
type Pump struct {
	dir      types.Direction
	src      ReadHalf
	dst      WriteHalf
	codec    compress.Codec
	op       Op
	counters *Counters
	bufSize  int
}

// NewPump 创建泵；codec 为 nil 时按 none 处理
func NewPump(dir types.Direction, src ReadHalf, dst WriteHalf, codec compress.Codec, op Op, counters *Counters) *Pump {
	if codec == nil {
		codec, _ = compress.New(compress.ModeNone)
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &Pump{
		dir:      dir,
		src:      src,
		dst:      dst,
		codec:    codec,
		op:       op,
		counters: counters,
		bufSize:  DefaultBufferSize,
	}
}

// Counters 返回泵的计数
func (p *Pump) Counters() *Counters {
	return p.counters
}

// Run 运行直到 src 结束或出错
//
// 正常结束返回 nil；I/O 错误包装 types.ErrIO，
// 数据错误包装 compress.ErrCorruptFrame（types.ErrDecode）。
func (p *Pump) Run() error {
	var err error
	switch {
	case !p.codec.Mode().Framed():
		err = p.copyRaw()
	case p.op == OpEncode:
		err = p.encode()
	default:
		err = p.decode()
	}
	if err != nil {
		return err
	}

	if err := p.dst.CloseWrite(); err != nil {
		return ioError(p.dir, "close write", err)
	}
	return nil
}

// readChunk 读取一次；eof 为 true 表示流已结束（含零长度读）
func (p *Pump) readChunk(buf []byte) (n int, eof bool, err error) {
	n, err = p.src.Read(buf)
	switch {
	case errors.Is(err, io.EOF):
		return n, true, nil
	case err != nil:
		return n, false, ioError(p.dir, "read", err)
	case n == 0:
		return 0, true, nil
	}
	return n, false, nil
}

// readSize 单次读取的上限；编码模式下不超过一条记录的最大长度
func (p *Pump) readSize() int {
	if p.codec.Mode().Framed() && p.bufSize > compress.MaxRecordSize {
		return compress.MaxRecordSize
	}
	return p.bufSize
}

// copyRaw 恒等变换：按读取到的字节原样写出
func (p *Pump) copyRaw() error {
	buf := make([]byte, p.bufSize)
	for {
		n, eof, err := p.readChunk(buf)
		if n > 0 {
			if _, werr := p.dst.Write(buf[:n]); werr != nil {
				return ioError(p.dir, "write", werr)
			}
			p.counters.Add(n, n)
		}
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// encode 每次读取编码为一条完整记录，写出后才进行下一次读取
func (p *Pump) encode() error {
	buf := make([]byte, p.readSize())
	var frame []byte
	for {
		n, eof, err := p.readChunk(buf)
		if n > 0 {
			body, encErr := p.codec.Encode(buf[:n])
			if encErr != nil {
				return fmt.Errorf("%s: %s: %w", p.dir, p.op, encErr)
			}
			frame = appendFrame(frame[:0], body)
			if _, werr := p.dst.Write(frame); werr != nil {
				return ioError(p.dir, "write", werr)
			}
			p.counters.Add(n, len(frame))
		}
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// decode 逐条重建完整记录后解码写出
func (p *Pump) decode() error {
	fr := newFrameReader(p.dir, p.src, p.readSize())
	for {
		body, wireLen, err := fr.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		plain, err := p.codec.Decode(body)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", p.dir, p.op, err)
		}
		if len(plain) > 0 {
			if _, werr := p.dst.Write(plain); werr != nil {
				return ioError(p.dir, "write", werr)
			}
		}
		p.counters.Add(len(plain), wireLen)
	}
}
