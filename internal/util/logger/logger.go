// Package logger 提供 quictun 的分子系统日志
//
// 基于标准库 log/slog：每个子系统一个缓存的 *slog.Logger，
// 级别由 QUICTUN_LOG_LEVEL 决定，运行时可用 SetLevel 调整。
//
// 使用示例:
//
//	var log = logger.Logger("relay")
//
//	log.Info("session started", "session", id, "mode", mode)
//	log.Error("session failed", "session", id, "err", err)
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 子系统 → *slog.Logger
	loggers sync.Map

	// handlers 子系统 → *subsystemHandler
	handlers sync.Map
)

// Logger 获取子系统 Logger，同名子系统返回同一实例
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	h := newHandler(subsystem, ConfigFromEnv())
	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).level.Set(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).level.Set(level)
		return true
	})
}

// SetOutput 设置日志输出目标，对已创建的 Logger 同样生效
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

// Discard 返回丢弃所有日志的 Logger（测试用）
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
