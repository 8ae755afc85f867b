package types

// Direction 中继方向
type Direction int

const (
	// DirForward 正向：QUIC 对端 → 本地 TCP（解码方向）
	DirForward Direction = iota
	// DirReverse 反向：本地 TCP → QUIC 对端（编码方向）
	DirReverse
)

// String 返回方向名称，用作日志字段和指标标签
func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirReverse:
		return "reverse"
	default:
		return "unknown"
	}
}
