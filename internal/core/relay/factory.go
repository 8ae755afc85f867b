package relay

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-quictun/internal/core/compress"
	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

// Factory 以固定的压缩模式与上报器创建会话
//
// 压缩模式在构造时选定，会话运行期间不再改变。
type Factory struct {
	codec    compress.Codec
	reporter pkgif.RelayReporter
	clock    clock.Clock
	bufSize  int
}

// NewFactory 创建会话工厂
func NewFactory(cfg Config, reporter pkgif.RelayReporter, clk clock.Clock) (*Factory, error) {
	codec, err := compress.New(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = pkgif.NopRelayReporter{}
	}
	if clk == nil {
		clk = clock.New()
	}
	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Factory{codec: codec, reporter: reporter, clock: clk, bufSize: bufSize}, nil
}

// Mode 返回压缩模式
func (f *Factory) Mode() compress.Mode {
	return f.codec.Mode()
}

// NewSession 为一对双向流创建会话
func (f *Factory) NewSession(peer, local Duplex, opts ...SessionOption) *Session {
	base := []SessionOption{
		WithReporter(f.reporter),
		WithClock(f.clock),
		WithBufferSize(f.bufSize),
	}
	return NewSession(peer, local, f.codec, append(base, opts...)...)
}
