package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliLevel 逐条记录压缩，偏向速度
const brotliLevel = 5

// brotliCodec Brotli 流压缩，每条记录是一个完整的 Brotli 流
type brotliCodec struct{}

func (brotliCodec) Mode() Mode { return ModeBrotli }

func (brotliCodec) Encode(plain []byte) ([]byte, error) {
	if err := checkRecordSize(len(plain)); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	w := brotli.NewWriterLevel(&b, brotliLevel)
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("brotli encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli encode: %w", err)
	}
	return b.Bytes(), nil
}

func (brotliCodec) Decode(wire []byte) ([]byte, error) {
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: brotli: empty record", ErrCorruptFrame)
	}
	r := brotli.NewReader(bytes.NewReader(wire))
	out, err := io.ReadAll(io.LimitReader(r, MaxRecordSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: brotli: %v", ErrCorruptFrame, err)
	}
	if len(out) > MaxRecordSize {
		return nil, fmt.Errorf("%w: brotli record exceeds %d", ErrCorruptFrame, MaxRecordSize)
	}
	return out, nil
}
