package relay

import (
	"sync/atomic"

	"github.com/dep2p/go-quictun/pkg/types"
)

// Counters 单方向的传输计数，单调递增
//
// 泵在写出成功后累加；其他 goroutine 可随时读取快照。
type Counters struct {
	raw  atomic.Uint64
	wire atomic.Uint64
}

// Add 累加明文字节数与线上字节数
func (c *Counters) Add(raw, wire int) {
	if raw > 0 {
		c.raw.Add(uint64(raw))
	}
	if wire > 0 {
		c.wire.Add(uint64(wire))
	}
}

// Snapshot 返回当前累计值
func (c *Counters) Snapshot() types.TransferSnapshot {
	return types.TransferSnapshot{
		RawBytes:  c.raw.Load(),
		WireBytes: c.wire.Load(),
	}
}
