package config

import (
	"fmt"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

// RelayConfig 中继配置
type RelayConfig struct {
	// Compression 压缩模式：none / lz4 / zstd / snappy / brotli，两端必须一致
	Compression string `json:"compression" toml:"compression"`

	// BufferSize 每个方向的读缓冲区大小（字节），0 表示默认 8 KiB，最大 1 MiB
	BufferSize int `json:"buffer_size,omitempty" toml:"buffer_size"`
}

// DefaultRelayConfig 返回默认中继配置
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Compression: "none",
	}
}

// Validate 验证中继配置
func (c RelayConfig) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: relay.buffer_size must not be negative", types.ErrConfig)
	}
	if c.BufferSize > compress.MaxRecordSize {
		return fmt.Errorf("%w: relay.buffer_size %d exceeds %d", types.ErrConfig, c.BufferSize, compress.MaxRecordSize)
	}
	return nil
}
