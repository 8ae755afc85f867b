// Package compress 实现中继的压缩策略
//
// 每种模式是一对可逆变换 {Encode, Decode}，作用于完整、自包含的记录，
// 而不是字节流的任意片段。记录在线上的分帧由 relay 包负责。
//
// # 模式
//
//   - none   - 恒等变换，不分帧
//   - lz4    - LZ4 块压缩，记录体 = 4 字节小端明文长度 + LZ4 块
//   - zstd   - Zstandard 帧
//   - snappy - Snappy 块
//   - brotli - Brotli 流
//
// # 使用示例
//
//	mode, err := compress.ParseMode("LZ4")
//	codec, err := compress.New(mode)
//	wire, err := codec.Encode([]byte("hello world"))
//	plain, err := codec.Decode(wire)
package compress
