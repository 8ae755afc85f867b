package interfaces

import "github.com/dep2p/go-quictun/pkg/types"

// RelayReporter 接收中继会话的生命周期事件
//
// 实现必须可并发调用：多个会话同时运行。
type RelayReporter interface {
	// SessionStarted 会话开始
	SessionStarted(id string)

	// SessionFinished 会话结束；err 为 nil 表示双向正常结束
	SessionFinished(stats types.SessionStats, err error)
}

// NopRelayReporter 丢弃所有事件
type NopRelayReporter struct{}

var _ RelayReporter = NopRelayReporter{}

// SessionStarted 实现 RelayReporter
func (NopRelayReporter) SessionStarted(string) {}

// SessionFinished 实现 RelayReporter
func (NopRelayReporter) SessionFinished(types.SessionStats, error) {}
