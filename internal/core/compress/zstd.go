package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec Zstandard 压缩，记录体是一个完整的 zstd 帧
//
// EncodeAll/DecodeAll 并发安全，两个方向可以共用一个实例。
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(2*MaxRecordSize),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Mode() Mode { return ModeZstd }

func (c *zstdCodec) Encode(plain []byte) ([]byte, error) {
	if err := checkRecordSize(len(plain)); err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(plain, nil), nil
}

func (c *zstdCodec) Decode(wire []byte) ([]byte, error) {
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: empty zstd frame", ErrCorruptFrame)
	}
	out, err := c.dec.DecodeAll(wire, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptFrame, err)
	}
	if len(out) > MaxRecordSize {
		return nil, fmt.Errorf("%w: zstd record of %d bytes exceeds %d", ErrCorruptFrame, len(out), MaxRecordSize)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
