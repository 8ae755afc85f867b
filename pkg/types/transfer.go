package types

import "time"

// TransferSnapshot 单方向的传输计数
//
// RawBytes 是明文字节数（TCP 一侧），WireBytes 是线上字节数（QUIC 一侧，
// 包含记录头）。不压缩时两者相等。
type TransferSnapshot struct {
	RawBytes  uint64
	WireBytes uint64
}

// SessionStats 一次中继会话的最终统计
type SessionStats struct {
	// ID 会话标识
	ID string

	// Compression 压缩模式名称
	Compression string

	// Forward 正向（对端 → 本地）计数
	Forward TransferSnapshot

	// Reverse 反向（本地 → 对端）计数
	Reverse TransferSnapshot

	// Winner 先结束的方向，会话被 ctx 取消时无意义
	Winner Direction

	// StartedAt 会话开始时间
	StartedAt time.Time

	// Duration 会话持续时间
	Duration time.Duration
}
