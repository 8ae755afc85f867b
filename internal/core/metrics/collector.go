package metrics

import (
	"context"
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
	"github.com/dep2p/go-quictun/pkg/types"
)

const namespace = "quictun"

// 会话结果标签
const (
	OutcomeOK       = "ok"
	OutcomeCanceled = "canceled"
	OutcomeDecode   = "decode"
	OutcomeIO       = "io"
	OutcomeError    = "error"
)

// Outcome 把会话错误归类为指标标签
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, types.ErrDecode):
		return OutcomeDecode
	case errors.Is(err, types.ErrIO):
		return OutcomeIO
	default:
		return OutcomeError
	}
}

// directionMeters 单方向的明文与线上速率
type directionMeters struct {
	raw  *RateMeter
	wire *RateMeter
}

// Collector 中继流量收集器
//
// 每个 Collector 拥有独立的 prometheus.Registry，测试之间互不影响。
type Collector struct {
	registry *prometheus.Registry

	bytes    *prometheus.CounterVec
	sessions *prometheus.CounterVec
	active   prometheus.Gauge
	duration prometheus.Histogram

	forward directionMeters
	reverse directionMeters
}

// 确保实现接口
var _ pkgif.RelayReporter = (*Collector)(nil)

// NewCollector 创建收集器，clk 为 nil 时使用系统时钟
func NewCollector(clk clock.Clock) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "bytes_total",
			Help:      "Bytes relayed, by direction and kind (raw plaintext or wire framed).",
		}, []string{"direction", "kind"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "sessions_total",
			Help:      "Relay sessions finished, by outcome.",
		}, []string{"outcome"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "sessions_active",
			Help:      "Relay sessions currently running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "session_duration_seconds",
			Help:      "Relay session lifetime.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		forward: directionMeters{raw: NewRateMeter(clk), wire: NewRateMeter(clk)},
		reverse: directionMeters{raw: NewRateMeter(clk), wire: NewRateMeter(clk)},
	}

	c.registry.MustRegister(
		c.bytes,
		c.sessions,
		c.active,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry 返回指标注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SessionStarted 实现 RelayReporter
func (c *Collector) SessionStarted(string) {
	c.active.Inc()
}

// SessionFinished 实现 RelayReporter
func (c *Collector) SessionFinished(stats types.SessionStats, err error) {
	c.active.Dec()
	c.sessions.WithLabelValues(Outcome(err)).Inc()
	c.duration.Observe(stats.Duration.Seconds())

	c.record(types.DirForward, c.forward, stats.Forward)
	c.record(types.DirReverse, c.reverse, stats.Reverse)
}

func (c *Collector) record(dir types.Direction, m directionMeters, snap types.TransferSnapshot) {
	c.bytes.WithLabelValues(dir.String(), "raw").Add(float64(snap.RawBytes))
	c.bytes.WithLabelValues(dir.String(), "wire").Add(float64(snap.WireBytes))
	m.raw.Add(snap.RawBytes)
	m.wire.Add(snap.WireBytes)
}

// ============================================================================
//                              快照
// ============================================================================

// DirectionStats 单方向的累计量与速率
type DirectionStats struct {
	RawBytes  uint64  `json:"raw_bytes"`
	WireBytes uint64  `json:"wire_bytes"`
	RawRate   float64 `json:"raw_rate"`
	WireRate  float64 `json:"wire_rate"`

	// Ratio 线上字节 / 明文字节，没有流量时为 0
	Ratio float64 `json:"ratio"`
}

// Snapshot 收集器快照
type Snapshot struct {
	Forward DirectionStats `json:"forward"`
	Reverse DirectionStats `json:"reverse"`
}

func (m directionMeters) stats() DirectionStats {
	s := DirectionStats{
		RawBytes:  m.raw.Total(),
		WireBytes: m.wire.Total(),
		RawRate:   m.raw.Rate(),
		WireRate:  m.wire.Rate(),
	}
	if s.RawBytes > 0 {
		s.Ratio = float64(s.WireBytes) / float64(s.RawBytes)
	}
	return s
}

// Snapshot 返回两个方向的当前统计
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Forward: c.forward.stats(),
		Reverse: c.reverse.stats(),
	}
}
