// Package forward 在 TCP 与 QUIC 之间转发连接
//
// 客户端：在 local 上接受 TCP 连接，每个连接建立一条新的 QUIC 连接，
// 打开一条双向流，写入流前导后运行中继会话。
//
// 服务端：接受 QUIC 连接，每个连接接受一条流，校验流前导，
// 拨号 TCP target 后运行中继会话。
//
// # 流前导
//
// 客户端打开流后立即发送 2 字节 {版本, 压缩模式}：
//
//	+---------+------------------+
//	| version | compression mode |
//	+---------+------------------+
//	   0x01       compress.Mode
//
// 前导让服务端在应用数据到达之前就能看到流（服务端先发言的协议），
// 并拒绝两端压缩模式不一致的连接（CodeCompressionMismatch）。
//
// 单个会话失败只记录日志，不影响接受循环，也不自动重试。
package forward
