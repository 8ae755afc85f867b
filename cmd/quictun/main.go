// Package main 提供 quictun 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dep2p/go-quictun"
	"github.com/dep2p/go-quictun/internal/util/logger"
)

var log = logger.Logger("cmd")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := newFlags("quictun", stderr)
	if err := flags.parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.showVersion {
		printVersion(stdout)
		return nil
	}

	cfg, err := buildConfig(flags, os.LookupEnv)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "📦 %s\n", quictun.VersionInfo())
	log.Info("starting quictun", "version", quictun.Version, "commit", quictun.GitCommit, "mode", cfg.Mode)

	tun, err := quictun.Start(ctx, quictun.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = tun.Close() }()

	printTunnelInfo(stdout, tun)

	// 等待退出信号
	fmt.Fprintln(stdout, "隧道已启动，按 Ctrl+C 退出")
	<-ctx.Done()

	fmt.Fprintln(stdout, "\n正在关闭隧道...")
	return nil
}

// printTunnelInfo 打印隧道信息
func printTunnelInfo(w io.Writer, tun *quictun.Tunnel) {
	cfg := tun.Config()
	fmt.Fprintf(w, "  模式:     %s\n", tun.Role())
	if addr := tun.LocalAddr(); addr != nil {
		fmt.Fprintf(w, "  本地:     %s\n", addr)
		fmt.Fprintf(w, "  远端:     %s\n", cfg.Tunnel.Remote)
	} else {
		fmt.Fprintf(w, "  监听:     %s\n", tun.EndpointAddr())
		fmt.Fprintf(w, "  目标:     %s\n", cfg.Tunnel.Target)
	}
	fmt.Fprintf(w, "  压缩:     %s\n", tun.Compression())
	fmt.Fprintf(w, "  拥塞控制: %s\n", cfg.Transport.Congestion)
	if cfg.Metrics.Enabled() {
		fmt.Fprintf(w, "  指标:     http://%s%s\n", cfg.Metrics.Listen, cfg.Metrics.Path)
	}
}

// printVersion 打印版本信息
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "quictun %s\n", quictun.Version)
	if quictun.GitCommit != "" {
		fmt.Fprintf(w, "  commit: %s\n", quictun.GitCommit)
	}
	if quictun.BuildDate != "" {
		fmt.Fprintf(w, "  built:  %s\n", quictun.BuildDate)
	}
}
