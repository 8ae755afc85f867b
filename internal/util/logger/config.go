// Package logger 提供 quictun 的分子系统日志
//
// 环境变量：
//   - QUICTUN_LOG_LEVEL: 日志级别，格式 子系统=级别,...,默认级别
//     示例: relay=debug,transport/quic=warn,info
//   - QUICTUN_LOG_FORMAT: text 或 json
//   - QUICTUN_LOG_SOURCE: 是否输出源码位置 (true/false)
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量名
const (
	EnvLogLevel  = "QUICTUN_LOG_LEVEL"
	EnvLogFormat = "QUICTUN_LOG_FORMAT"
	EnvLogSource = "QUICTUN_LOG_SOURCE"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 未单独配置的子系统使用的级别
	DefaultLevel slog.Level

	// SubsystemLevels 子系统级别覆盖
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat

	// AddSource 是否输出源码位置
	AddSource bool
}

// LevelForSubsystem 返回子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	configCache *Config
	configOnce  sync.Once
)

// ConfigFromEnv 从环境变量解析配置，结果只解析一次
func ConfigFromEnv() *Config {
	configOnce.Do(func() {
		configCache = ParseConfig(os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat), os.Getenv(EnvLogSource))
	})
	return configCache
}

// ParseConfig 解析日志配置字符串
//
// 空字符串表示使用默认值：info 级别、文本格式、不输出源码位置。
func ParseConfig(levelStr, formatStr, sourceStr string) *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	if levelStr != "" {
		parseLevelConfig(cfg, levelStr)
	}

	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		cfg.Format = FormatJSON
	}

	switch strings.ToLower(strings.TrimSpace(sourceStr)) {
	case "1", "true", "yes":
		cfg.AddSource = true
	}

	return cfg
}

// parseLevelConfig 解析 subsystem=level,...,defaultLevel
func parseLevelConfig(cfg *Config, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		subsystem, levelName, found := strings.Cut(part, "=")
		if !found {
			if level, ok := ParseLevel(part); ok {
				cfg.DefaultLevel = level
			}
			continue
		}

		if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
			cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
		}
	}
}

// ParseLevel 解析日志级别名称（大小写不敏感）
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ResetConfig 重置配置缓存（仅用于测试）
func ResetConfig() {
	configOnce = sync.Once{}
	configCache = nil
}
