// Package interfaces 定义 quictun 组件之间的公共接口
//
// 实现位于 internal/ 下，组件只依赖本包中的接口：
//
//   - relay.go    - RelayReporter 中继会话结果上报（metrics 实现）
//   - security.go - CertStore TLS 上下文来源（security/tls 实现）
package interfaces
