package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dep2p/go-quictun/pkg/types"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "QUICTUN_"

// 环境变量名称（不含前缀）
const (
	EnvMode           = "MODE"
	EnvLocal          = "LOCAL"
	EnvRemote         = "REMOTE"
	EnvServerName     = "SERVER_NAME"
	EnvListen         = "LISTEN"
	EnvTarget         = "TARGET"
	EnvDialTimeout    = "DIAL_TIMEOUT"
	EnvCA             = "CA"
	EnvCert           = "CERT"
	EnvKey            = "KEY"
	EnvWatchFiles     = "WATCH_FILES"
	EnvCompression    = "COMPRESSION"
	EnvBufferSize     = "BUFFER_SIZE"
	EnvCongestion     = "CONGESTION"
	EnvKeepAlive      = "KEEP_ALIVE"
	EnvIdleTimeout    = "IDLE_TIMEOUT"
	EnvStatelessRetry = "STATELESS_RETRY"
	EnvALPN           = "ALPN"
	EnvMetricsListen  = "METRICS_LISTEN"
	EnvMetricsPath    = "METRICS_PATH"
)

// LookupFunc 环境变量查询函数，签名与 os.LookupEnv 一致
type LookupFunc func(key string) (string, bool)

// ApplyEnv 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 空值视为未设置。无法解析的布尔值、整数或时长返回 ErrConfig。
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if cfg == nil {
		return errNilConfig
	}

	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	texts := []struct {
		name string
		dst  *string
	}{
		{EnvMode, &cfg.Mode},
		{EnvLocal, &cfg.Tunnel.Local},
		{EnvRemote, &cfg.Tunnel.Remote},
		{EnvServerName, &cfg.Tunnel.ServerName},
		{EnvListen, &cfg.Tunnel.Listen},
		{EnvTarget, &cfg.Tunnel.Target},
		{EnvCA, &cfg.Security.CA},
		{EnvCert, &cfg.Security.Cert},
		{EnvKey, &cfg.Security.Key},
		{EnvCompression, &cfg.Relay.Compression},
		{EnvCongestion, &cfg.Transport.Congestion},
		{EnvALPN, &cfg.Transport.ALPN},
		{EnvMetricsListen, &cfg.Metrics.Listen},
		{EnvMetricsPath, &cfg.Metrics.Path},
	}
	for _, s := range texts {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}

	durations := []struct {
		name string
		dst  *Duration
	}{
		{EnvDialTimeout, &cfg.Tunnel.DialTimeout},
		{EnvIdleTimeout, &cfg.Transport.IdleTimeout},
	}
	for _, d := range durations {
		v, ok := get(d.name)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return envError(d.name, err)
		}
		*d.dst = parsed
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{EnvWatchFiles, &cfg.Security.WatchFiles},
		{EnvStatelessRetry, &cfg.Transport.StatelessRetry},
	}
	for _, b := range bools {
		v, ok := get(b.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return envError(b.name, err)
		}
		*b.dst = parsed
	}

	// QUICTUN_KEEP_ALIVE 显式设置后覆盖按角色的默认值
	if v, ok := get(EnvKeepAlive); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvKeepAlive, err)
		}
		cfg.Transport.KeepAlive = &parsed
	}

	if v, ok := get(EnvBufferSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvBufferSize, err)
		}
		cfg.Relay.BufferSize = n
	}

	return nil
}

func envError(name string, err error) error {
	return fmt.Errorf("%w: %s%s: %v", types.ErrConfig, EnvPrefix, name, err)
}
