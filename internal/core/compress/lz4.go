package compress

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// sizeHeaderLen 记录体中明文长度头的字节数（小端 uint32）
const sizeHeaderLen = 4

// lz4Codec LZ4 块压缩，记录体 = 明文长度头 + LZ4 块
type lz4Codec struct{}

func (lz4Codec) Mode() Mode { return ModeLz4 }

func (lz4Codec) Encode(plain []byte) ([]byte, error) {
	if err := checkRecordSize(len(plain)); err != nil {
		return nil, err
	}

	out := make([]byte, sizeHeaderLen+lz4.CompressBlockBound(len(plain)))
	binary.LittleEndian.PutUint32(out, uint32(len(plain)))
	if len(plain) == 0 {
		return out[:sizeHeaderLen], nil
	}

	n, err := lz4.CompressBlock(plain, out[sizeHeaderLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 {
		// 目标缓冲区按 CompressBlockBound 分配，不应出现
		return nil, errors.New("lz4 compress: empty block for non-empty input")
	}
	return out[:sizeHeaderLen+n], nil
}

func (lz4Codec) Decode(wire []byte) ([]byte, error) {
	if len(wire) < sizeHeaderLen {
		return nil, fmt.Errorf("%w: lz4 size header truncated (%d bytes)", ErrCorruptFrame, len(wire))
	}

	size := binary.LittleEndian.Uint32(wire)
	if size > MaxRecordSize {
		return nil, fmt.Errorf("%w: lz4 declared size %d exceeds %d", ErrCorruptFrame, size, MaxRecordSize)
	}

	payload := wire[sizeHeaderLen:]
	if size == 0 {
		if len(payload) > 1 {
			return nil, fmt.Errorf("%w: lz4 payload for empty record", ErrCorruptFrame)
		}
		return []byte{}, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptFrame, err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 decompressed %d bytes, declared %d", ErrCorruptFrame, n, size)
	}
	return out, nil
}
