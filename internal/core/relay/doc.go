// Package relay 实现 QUIC 流与 TCP 连接之间的双向中继
//
// 一个 Session 绑定一对双向流（QUIC 对端流 peer、本地 TCP 连接 local），
// 并发运行两个 Pump：
//
//	Forward: peer → local，逐条读取完整记录并解码
//	Reverse: local → peer，每次读取后编码为一条记录并立即写出
//
// 两端的 Session 使用同一方向约定：QUIC 链路是压缩骨干，
// 进入隧道的字节在入口端编码一次，在出口端解码一次。
//
// # 分帧
//
// 非 none 模式下每条记录在线上为 uvarint(len(body)) || body。
// 解码端跨越任意多次底层读取重建完整记录，读边界不等于记录边界。
//
// # 终止
//
// 任一方向结束（EOF 或错误）后，Session 立即中止另一个方向，
// 等待其退出，关闭所有半流，然后返回两个方向的累计计数。
package relay
