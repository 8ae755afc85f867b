// Package quic 构建隧道两端的 QUIC 端点
//
// 基于 quic-go。一个端点独占一个 UDP socket（quic.Transport），
// 客户端绑定临时通配地址，服务端绑定配置的监听地址。
//
// # 传输策略
//
// BuildPolicy 从拥塞模式、keep-alive 开关与空闲超时生成不可变的 Policy：
//
//	policy, err := quic.BuildPolicy(quic.CongestionCubic, true, 10*time.Second)
//	// policy.KeepAliveInterval() == 5s
//
// # 端点
//
//	client, err := quic.BuildClientEndpoint(store, paths, policy, []string{quic.DefaultALPN})
//	conn, err := client.Dial(ctx, "tunnel.example.com:4433")
//
//	server, err := quic.BuildServerEndpoint(store, paths, policy, []string{quic.DefaultALPN}, "0.0.0.0:4433", true)
//	conn, err := server.Accept(ctx)
//
// 服务端禁用单向流，每个连接只接受一条双向流。
package quic
