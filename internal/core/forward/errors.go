package forward

import (
	"fmt"

	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	// ErrBadPreamble 流前导无法识别
	ErrBadPreamble = fmt.Errorf("%w: bad stream preamble", types.ErrDecode)

	// ErrCompressionMismatch 对端使用不同的压缩模式
	ErrCompressionMismatch = fmt.Errorf("%w: compression mismatch", types.ErrConfig)

	// ErrRoleMismatch 转发配置与端点角色不一致
	ErrRoleMismatch = fmt.Errorf("%w: forwarder role does not match endpoint", types.ErrConfig)

	// ErrAlreadyStarted 转发器已启动
	ErrAlreadyStarted = fmt.Errorf("%w: forwarder already started", types.ErrConfig)
)
