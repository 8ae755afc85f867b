package compress

import (
	"fmt"

	"github.com/golang/snappy"
)

// snappyCodec Snappy 块压缩（块格式自带明文长度前缀）
type snappyCodec struct{}

func (snappyCodec) Mode() Mode { return ModeSnappy }

func (snappyCodec) Encode(plain []byte) ([]byte, error) {
	if err := checkRecordSize(len(plain)); err != nil {
		return nil, err
	}
	return snappy.Encode(nil, plain), nil
}

func (snappyCodec) Decode(wire []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", ErrCorruptFrame, err)
	}
	if n > MaxRecordSize {
		return nil, fmt.Errorf("%w: snappy declared size %d exceeds %d", ErrCorruptFrame, n, MaxRecordSize)
	}
	out, err := snappy.Decode(nil, wire)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", ErrCorruptFrame, err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
