package relay

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

// MaxFrameSize 记录体允许的最大长度
const MaxFrameSize = 2 * compress.MaxRecordSize

// appendFrame 追加一条记录：uvarint 长度头 + 记录体
func appendFrame(dst, body []byte) []byte {
	var hdr [varint.MaxLenUvarint63]byte
	n := varint.PutUvarint(hdr[:], uint64(len(body)))
	dst = append(dst, hdr[:n]...)
	return append(dst, body...)
}

// frameReader 从字节流中逐条读取完整记录
//
// 一条记录可以跨越任意多次底层读取，一次底层读取也可以包含多条记录。
type frameReader struct {
	dir  types.Direction
	br   *bufio.Reader
	body []byte
}

func newFrameReader(dir types.Direction, r io.Reader, size int) *frameReader {
	return &frameReader{dir: dir, br: bufio.NewReaderSize(&zeroEOFReader{r: r}, size)}
}

// zeroEOFReader 把零长度读视为流结束，之后不再读取底层
type zeroEOFReader struct {
	r   io.Reader
	eof bool
}

func (z *zeroEOFReader) Read(p []byte) (int, error) {
	if z.eof {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := z.r.Read(p)
	if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
		z.eof = true
		err = io.EOF
	}
	return n, err
}

// next 读取下一条记录体，返回值在下次调用前有效
//
// 记录边界上的流结束返回 io.EOF；记录中途结束返回 ErrTruncatedFrame。
// 返回的第二个值是该记录在线上占用的字节数。
func (fr *frameReader) next() ([]byte, int, error) {
	length, err := varint.ReadUvarint(fr.br)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, 0, fmt.Errorf("%s: %w: header", fr.dir, ErrTruncatedFrame)
	case errors.Is(err, varint.ErrOverflow), errors.Is(err, varint.ErrNotMinimal):
		return nil, 0, fmt.Errorf("%s: %w: bad header: %v", fr.dir, compress.ErrCorruptFrame, err)
	default:
		return nil, 0, ioError(fr.dir, "read", err)
	}

	if length == 0 {
		return nil, 0, fmt.Errorf("%s: %w", fr.dir, ErrEmptyFrame)
	}
	if length > MaxFrameSize {
		return nil, 0, fmt.Errorf("%s: %w: %d bytes", fr.dir, ErrFrameTooLarge, length)
	}

	if cap(fr.body) < int(length) {
		fr.body = make([]byte, length)
	}
	body := fr.body[:length]

	if _, err := io.ReadFull(fr.br, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("%s: %w: body", fr.dir, ErrTruncatedFrame)
		}
		return nil, 0, ioError(fr.dir, "read", err)
	}

	return body, varint.UvarintSize(length) + int(length), nil
}
