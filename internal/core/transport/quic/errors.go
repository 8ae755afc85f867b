package quic

import (
	"errors"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	// ErrInvalidDuration 空闲超时无法用传输的时间单位表示
	ErrInvalidDuration = fmt.Errorf("%w: invalid duration", types.ErrConfig)

	// ErrUnknownCongestion 无法识别的拥塞模式
	ErrUnknownCongestion = errors.New("unknown congestion mode")

	// ErrInvalidAddress 地址语法错误
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", types.ErrConfig)

	// ErrBind socket 绑定失败
	ErrBind = fmt.Errorf("%w: bind failed", types.ErrTransport)

	// ErrEndpointClosed 端点已关闭
	ErrEndpointClosed = fmt.Errorf("%w: endpoint closed", types.ErrTransport)

	// ErrNotListening 客户端端点不接受连接
	ErrNotListening = fmt.Errorf("%w: endpoint is not listening", types.ErrTransport)
)

// 连接关闭时发给对端的应用错误码
const (
	// CodeOK 正常关闭
	CodeOK quic.ApplicationErrorCode = 0x0
	// CodeProtocolError 流前导无效
	CodeProtocolError quic.ApplicationErrorCode = 0x1
	// CodeCompressionMismatch 两端压缩模式不一致
	CodeCompressionMismatch quic.ApplicationErrorCode = 0x2
	// CodeTargetUnreachable 服务端无法连接目标 TCP 服务
	CodeTargetUnreachable quic.ApplicationErrorCode = 0x3
	// CodeRelayError 中继会话出错
	CodeRelayError quic.ApplicationErrorCode = 0x4
	// CodeShutdown 进程退出
	CodeShutdown quic.ApplicationErrorCode = 0x5
)
