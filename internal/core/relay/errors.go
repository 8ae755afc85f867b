package relay

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	// ErrFrameTooLarge 记录头声明的长度超过 MaxFrameSize
	ErrFrameTooLarge = fmt.Errorf("%w: frame too large", compress.ErrCorruptFrame)

	// ErrTruncatedFrame 记录头或记录体在流结束前不完整
	ErrTruncatedFrame = fmt.Errorf("%w: truncated frame", compress.ErrCorruptFrame)

	// ErrEmptyFrame 记录体长度为 0
	ErrEmptyFrame = fmt.Errorf("%w: empty frame", compress.ErrCorruptFrame)

	// ErrSessionStarted Session 只能运行一次
	ErrSessionStarted = errors.New("relay session already started")
)

// ioError 包装流读写错误
func ioError(dir types.Direction, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", types.ErrIO, dir, op, err)
}
