// Package quictun 提供基于 QUIC 的 TCP 隧道
//
// 客户端在本地接受 TCP 连接，为每个连接拨号一条 QUIC 连接；
// 服务端接受 QUIC 连接并拨号目标 TCP 服务。两端之间的 QUIC
// 连接是压缩骨干，明文只出现在 TCP 一侧。
//
// # 快速开始
//
//	import "github.com/dep2p/go-quictun"
//
//	tun, err := quictun.Start(ctx,
//	    quictun.WithConfigFile("client.toml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tun.Close()
//
//	fmt.Println("listening on", tun.LocalAddr())
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Tunnel                    quictun.New() / Start()       │
//	├──────────────────────────────────────────────────────────┤
//	│  forward      TCP 接受/拨号、流前导、会话生命周期        │
//	│  relay        双向泵、压缩帧、终止竞争                   │
//	│  compress     none / snappy / lz4 / zstd / brotli        │
//	├──────────────────────────────────────────────────────────┤
//	│  transport/quic  传输策略、端点构建                      │
//	│  security/tls    证书加载与热更新                        │
//	│  metrics         Prometheus 指标与 HTTP 服务             │
//	└──────────────────────────────────────────────────────────┘
//
// 组件通过 Fx 组装，配置来自 config 包（JSON / TOML 文件、
// QUICTUN_ 环境变量）。
package quictun
