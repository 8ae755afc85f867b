// Package metrics 统计中继流量并以 Prometheus 格式导出
//
// Collector 实现 interfaces.RelayReporter，接收每个中继会话的最终统计：
//
//   - quictun_relay_bytes_total{direction,kind}: 累计字节，kind 为 raw（明文）或 wire（线上）
//   - quictun_relay_sessions_total{outcome}: 结束的会话数，outcome 为 ok / canceled / decode / io
//   - quictun_relay_sessions_active: 运行中的会话数
//   - quictun_relay_session_duration_seconds: 会话时长分布
//
// 同时为每个方向维护最近 60 秒的速率（RateMeter），通过 Snapshot 读取。
//
// # HTTP 服务
//
// 配置 metrics.listen 后 Server 在该地址提供：
//
//	GET /metrics   Prometheus 文本格式（路径可配置）
//	GET /healthz   存活检查
//	GET /stats     JSON 快照
package metrics
