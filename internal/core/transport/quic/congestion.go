package quic

import (
	"fmt"
	"strings"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-quictun/pkg/types"
)

// CongestionMode 拥塞控制模式
type CongestionMode int

const (
	// CongestionNewReno 默认模式，保守窗口
	CongestionNewReno CongestionMode = iota
	// CongestionCubic quic-go 默认窗口
	CongestionCubic
	// CongestionBBR 大窗口，适合高带宽时延积链路
	CongestionBBR
)

var congestionNames = map[CongestionMode]string{
	CongestionNewReno: "newreno",
	CongestionCubic:   "cubic",
	CongestionBBR:     "bbr",
}

// ParseCongestionMode 解析拥塞模式（不区分大小写）
//
// 无法识别的名称返回包装 types.ErrConfig 的错误，不回退到默认值。
func ParseCongestionMode(s string) (CongestionMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for mode, n := range congestionNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %w: %q", types.ErrConfig, ErrUnknownCongestion, s)
}

// String 返回模式名称
func (m CongestionMode) String() string {
	if n, ok := congestionNames[m]; ok {
		return n
	}
	return fmt.Sprintf("congestion(%d)", int(m))
}

// MarshalText 实现 encoding.TextMarshaler
func (m CongestionMode) MarshalText() ([]byte, error) {
	n, ok := congestionNames[m]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCongestion, int(m))
	}
	return []byte(n), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (m *CongestionMode) UnmarshalText(text []byte) error {
	mode, err := ParseCongestionMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ============================================================================
//                              控制器
// ============================================================================

// CongestionController 拥塞策略
//
// quic-go 的丢包恢复与拥塞窗口由内置控制器负责，不提供可替换的控制器工厂；
// 策略通过流量控制窗口决定连接在途数据的上限。
type CongestionController interface {
	Mode() CongestionMode

	// Apply 将策略写入 QUIC 配置
	Apply(cfg *quic.Config)
}

// windowProfile 流量控制窗口，零值表示使用 quic-go 默认值
type windowProfile struct {
	mode              CongestionMode
	initialStream     uint64
	maxStream         uint64
	initialConnection uint64
	maxConnection     uint64
}

func (w windowProfile) Mode() CongestionMode { return w.mode }

func (w windowProfile) Apply(cfg *quic.Config) {
	cfg.InitialStreamReceiveWindow = w.initialStream
	cfg.MaxStreamReceiveWindow = w.maxStream
	cfg.InitialConnectionReceiveWindow = w.initialConnection
	cfg.MaxConnectionReceiveWindow = w.maxConnection
}

const (
	kib = 1 << 10
	mib = 1 << 20
)

var controllers = map[CongestionMode]CongestionController{
	// 有损链路：窗口保守，限制突发
	CongestionNewReno: windowProfile{
		mode:              CongestionNewReno,
		initialStream:     256 * kib,
		maxStream:         2 * mib,
		initialConnection: 384 * kib,
		maxConnection:     4 * mib,
	},
	CongestionCubic: windowProfile{mode: CongestionCubic},
	// 高带宽时延积：窗口放大
	CongestionBBR: windowProfile{
		mode:              CongestionBBR,
		initialStream:     2 * mib,
		maxStream:         16 * mib,
		initialConnection: 4 * mib,
		maxConnection:     32 * mib,
	},
}

// NewCongestionController 返回模式对应的策略
func NewCongestionController(mode CongestionMode) (CongestionController, error) {
	c, ok := controllers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %d", types.ErrConfig, ErrUnknownCongestion, int(mode))
	}
	return c, nil
}
