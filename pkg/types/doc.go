// Package types 定义 quictun 的公共数据结构
//
// 这是最底层的包，不依赖任何其他 quictun 内部包。
//
// # 文件组织
//
//   - errors.go    - 错误分类（ErrConfig, ErrTLS, ErrTransport, ErrIO, ErrDecode）
//   - direction.go - 中继方向 Direction
//   - transfer.go  - 传输计数快照 TransferSnapshot
//   - role.go      - 端点角色 Role
package types
