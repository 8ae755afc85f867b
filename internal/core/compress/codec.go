package compress

import (
	"fmt"
)

// Codec 一种压缩模式的变换对
//
// Encode/Decode 只接受完整记录。实现必须可以被两个方向的泵并发调用。
type Codec interface {
	// Mode 返回编解码器对应的模式
	Mode() Mode

	// Encode 把一条明文记录变换为线上记录体
	Encode(plain []byte) ([]byte, error)

	// Decode 把一条线上记录体还原为明文，损坏时返回 ErrCorruptFrame
	Decode(wire []byte) ([]byte, error)
}

// New 创建模式对应的编解码器
func New(mode Mode) (Codec, error) {
	switch mode {
	case ModeNone:
		return noneCodec{}, nil
	case ModeLz4:
		return lz4Codec{}, nil
	case ModeZstd:
		return newZstdCodec()
	case ModeSnappy:
		return snappyCodec{}, nil
	case ModeBrotli:
		return brotliCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(mode))
	}
}

// Encode 使用 mode 编码一条记录
func Encode(mode Mode, plain []byte) ([]byte, error) {
	c, err := New(mode)
	if err != nil {
		return nil, err
	}
	return c.Encode(plain)
}

// Decode 使用 mode 解码一条记录
func Decode(mode Mode, wire []byte) ([]byte, error) {
	c, err := New(mode)
	if err != nil {
		return nil, err
	}
	return c.Decode(wire)
}

func checkRecordSize(n int) error {
	if n > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrRecordTooLarge, n, MaxRecordSize)
	}
	return nil
}

// noneCodec 恒等变换
type noneCodec struct{}

func (noneCodec) Mode() Mode                          { return ModeNone }
func (noneCodec) Encode(plain []byte) ([]byte, error) { return plain, nil }
func (noneCodec) Decode(wire []byte) ([]byte, error)  { return wire, nil }
