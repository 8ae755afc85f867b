package compress

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-quictun/pkg/types"
)

var (
	// ErrCorruptFrame 记录损坏：长度头缺失/截断，或解压结果与声明长度不符
	ErrCorruptFrame = fmt.Errorf("%w: corrupt frame", types.ErrDecode)

	// ErrUnknownMode 无法识别的压缩模式
	ErrUnknownMode = errors.New("unknown compression mode")

	// ErrRecordTooLarge 明文记录超过 MaxRecordSize
	ErrRecordTooLarge = errors.New("record too large")
)
