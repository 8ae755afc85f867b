package compress

import (
	"fmt"
	"strings"

	"github.com/dep2p/go-quictun/pkg/types"
)

// Mode 压缩模式，一次会话只选择一次，两个方向共用
type Mode uint8

const (
	// ModeNone 不压缩
	ModeNone Mode = iota
	// ModeLz4 LZ4 块压缩
	ModeLz4
	// ModeZstd Zstandard 压缩
	ModeZstd
	// ModeSnappy Snappy 压缩
	ModeSnappy
	// ModeBrotli Brotli 压缩，压缩率高、速度较慢
	ModeBrotli
)

// MaxRecordSize 单条记录允许声明的最大明文长度
const MaxRecordSize = 1 << 20

var modeNames = map[Mode]string{
	ModeNone:   "none",
	ModeLz4:    "lz4",
	ModeZstd:   "zstd",
	ModeSnappy: "snappy",
	ModeBrotli: "brotli",
}

// ParseMode 解析压缩模式（大小写不敏感）
//
// 无法识别的名称返回 types.ErrConfig，不会静默回退到默认值。
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("%w: %w: %q", types.ErrConfig, ErrUnknownMode, s)
}

// String 返回模式名称
func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Valid 检查模式是否已定义
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Framed 报告该模式的记录在线上是否需要长度分帧
//
// 只有恒等变换可以按任意读边界转发。
func (m Mode) Framed() bool {
	return m != ModeNone
}

// MarshalText 实现 encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
