package main

import (
	"flag"
	"io"
	"time"

	"github.com/dep2p/go-quictun/config"
)

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（「这次运行」想怎么跑）
//   配置文件：持久化配置（JSON 或 TOML）
//
// 只有显式设置的参数才覆盖配置文件和环境变量。
//
// ═══════════════════════════════════════════════════════════════════════════

// cliFlags 命令行参数
type cliFlags struct {
	fs *flag.FlagSet

	configFile string
	mode       string

	// ─────────────────────────────────────────────────────────────────────
	// 地址
	// ─────────────────────────────────────────────────────────────────────
	local       string
	remote      string
	serverName  string
	listen      string
	target      string
	dialTimeout time.Duration

	// ─────────────────────────────────────────────────────────────────────
	// 证书
	// ─────────────────────────────────────────────────────────────────────
	ca    string
	cert  string
	key   string
	watch bool

	// ─────────────────────────────────────────────────────────────────────
	// 中继与传输
	// ─────────────────────────────────────────────────────────────────────
	compression string
	bufferSize  int
	congestion  string
	keepAlive   bool
	idleTimeout time.Duration
	retry       bool
	alpn        string

	// ─────────────────────────────────────────────────────────────────────
	// 指标
	// ─────────────────────────────────────────────────────────────────────
	metricsListen string
	metricsPath   string

	showVersion bool
}

// newFlags 创建参数集，错误输出写到 output
func newFlags(name string, output io.Writer) *cliFlags {
	f := &cliFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(output)

	f.fs.StringVar(&f.configFile, "config", "", "配置文件路径（.json 或 .toml）")
	f.fs.StringVar(&f.mode, "mode", "", "运行模式 (client/server)")

	f.fs.StringVar(&f.local, "local", "", "客户端 TCP 监听地址")
	f.fs.StringVar(&f.remote, "remote", "", "客户端拨号的服务端地址")
	f.fs.StringVar(&f.serverName, "server-name", "", "TLS 校验使用的服务端名称（默认取 remote 的主机部分）")
	f.fs.StringVar(&f.listen, "listen", "", "服务端 UDP 监听地址")
	f.fs.StringVar(&f.target, "target", "", "服务端拨号的 TCP 目标")
	f.fs.DurationVar(&f.dialTimeout, "dial-timeout", 0, "拨号超时")

	f.fs.StringVar(&f.ca, "ca", "", "CA 证书路径")
	f.fs.StringVar(&f.cert, "cert", "", "本端证书路径")
	f.fs.StringVar(&f.key, "key", "", "本端私钥路径")
	f.fs.BoolVar(&f.watch, "watch-certs", false, "证书文件变化时重新加载")

	f.fs.StringVar(&f.compression, "compression", "", "压缩模式 (none/lz4/zstd/snappy/brotli)")
	f.fs.IntVar(&f.bufferSize, "buffer-size", 0, "中继读缓冲区大小（字节）")
	f.fs.StringVar(&f.congestion, "congestion", "", "拥塞控制 (newreno/cubic/bbr)")
	f.fs.BoolVar(&f.keepAlive, "keep-alive", false, "发送 keep-alive（间隔为空闲超时的一半）")
	f.fs.DurationVar(&f.idleTimeout, "idle-timeout", 0, "QUIC 空闲超时")
	f.fs.BoolVar(&f.retry, "stateless-retry", false, "服务端要求地址校验（Retry）")
	f.fs.StringVar(&f.alpn, "alpn", "", "ALPN 协议列表（逗号分隔）")

	f.fs.StringVar(&f.metricsListen, "metrics-listen", "", "指标 HTTP 监听地址")
	f.fs.StringVar(&f.metricsPath, "metrics-path", "", "指标路径")

	f.fs.BoolVar(&f.showVersion, "version", false, "显示版本信息")
	return f
}

// parse 解析参数
func (f *cliFlags) parse(args []string) error {
	return f.fs.Parse(args)
}

// isSet 检查参数是否被显式设置
func (f *cliFlags) isSet(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// apply 把显式设置的参数写入配置
func (f *cliFlags) apply(cfg *config.Config) {
	texts := []struct {
		name string
		src  string
		dst  *string
	}{
		{"mode", f.mode, &cfg.Mode},
		{"local", f.local, &cfg.Tunnel.Local},
		{"remote", f.remote, &cfg.Tunnel.Remote},
		{"server-name", f.serverName, &cfg.Tunnel.ServerName},
		{"listen", f.listen, &cfg.Tunnel.Listen},
		{"target", f.target, &cfg.Tunnel.Target},
		{"ca", f.ca, &cfg.Security.CA},
		{"cert", f.cert, &cfg.Security.Cert},
		{"key", f.key, &cfg.Security.Key},
		{"compression", f.compression, &cfg.Relay.Compression},
		{"congestion", f.congestion, &cfg.Transport.Congestion},
		{"alpn", f.alpn, &cfg.Transport.ALPN},
		{"metrics-listen", f.metricsListen, &cfg.Metrics.Listen},
		{"metrics-path", f.metricsPath, &cfg.Metrics.Path},
	}
	for _, t := range texts {
		if f.isSet(t.name) {
			*t.dst = t.src
		}
	}

	if f.isSet("dial-timeout") {
		cfg.Tunnel.DialTimeout = config.Duration(f.dialTimeout)
	}
	if f.isSet("idle-timeout") {
		cfg.Transport.IdleTimeout = config.Duration(f.idleTimeout)
	}
	if f.isSet("buffer-size") {
		cfg.Relay.BufferSize = f.bufferSize
	}
	if f.isSet("watch-certs") {
		cfg.Security.WatchFiles = f.watch
	}
	if f.isSet("stateless-retry") {
		cfg.Transport.StatelessRetry = f.retry
	}
	if f.isSet("keep-alive") {
		v := f.keepAlive
		cfg.Transport.KeepAlive = &v
	}
}

// buildConfig 生成最终配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（QUICTUN_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig(f *cliFlags, lookup config.LookupFunc) (*config.Config, error) {
	var cfg *config.Config
	if f.configFile != "" {
		loaded, err := config.LoadFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewConfig()
	}

	if lookup != nil {
		if err := config.ApplyEnv(cfg, lookup); err != nil {
			return nil, err
		}
	}
	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
