package quictun

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 隧道未启动
	ErrNotStarted = errors.New("tunnel not started")

	// ErrAlreadyStarted 隧道已启动
	ErrAlreadyStarted = errors.New("tunnel already started")

	// ErrTunnelClosed 隧道已关闭，不能重新启动
	ErrTunnelClosed = errors.New("tunnel closed")
)
