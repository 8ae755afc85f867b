// Package types 定义 quictun 的公共类型
//
// 本文件定义错误分类。各模块的具体错误通过 %w 包装分类错误，
// 调用方既可以用 errors.Is 判断分类，也可以判断具体错误。
package types

import "errors"

// ============================================================================
//                              错误分类
// ============================================================================

var (
	// ErrConfig 配置错误：无效时长、无法解析的模式、无效监听地址
	//
	// 在任何 I/O 之前发生，不重试。
	ErrConfig = errors.New("config error")

	// ErrTLS TLS 上下文构建失败（证书、私钥、CA 加载）
	ErrTLS = errors.New("tls error")

	// ErrTransport 传输错误：绑定失败、握手失败、空闲超时
	ErrTransport = errors.New("transport error")

	// ErrIO 流读写失败（QUIC 流或 TCP 连接）
	ErrIO = errors.New("io error")

	// ErrDecode 数据错误：压缩记录损坏或截断
	//
	// 与 ErrIO 区分：ErrDecode 表示协议/数据问题而不是网络故障。
	ErrDecode = errors.New("decode error")
)
