package quic

import (
	"fmt"
	"time"

	"github.com/quic-go/quic-go"
)

// maxHandshakeIdle 握手空闲超时上限
const maxHandshakeIdle = 10 * time.Second

// Policy 传输策略，构造后不可变
type Policy struct {
	controller  CongestionController
	idleTimeout time.Duration
	keepAlive   time.Duration
}

// BuildPolicy 生成传输策略
//
// keepAlive 为 true 时 keep-alive 间隔恰好为 idleTimeout 的一半。
// idleTimeout 非正或小于 1ms 时返回 ErrInvalidDuration。
// QUIC max_idle_timeout 是毫秒 varint（上限 2^62-1），time.Duration 不会超出。
func BuildPolicy(mode CongestionMode, keepAlive bool, idleTimeout time.Duration) (Policy, error) {
	controller, err := NewCongestionController(mode)
	if err != nil {
		return Policy{}, err
	}

	switch {
	case idleTimeout <= 0:
		return Policy{}, fmt.Errorf("%w: idle timeout %s must be positive", ErrInvalidDuration, idleTimeout)
	case idleTimeout < time.Millisecond:
		return Policy{}, fmt.Errorf("%w: idle timeout %s below 1ms", ErrInvalidDuration, idleTimeout)
	}

	p := Policy{
		controller:  controller,
		idleTimeout: idleTimeout,
	}
	if keepAlive {
		p.keepAlive = idleTimeout / 2
	}
	return p, nil
}

// Congestion 返回拥塞模式
func (p Policy) Congestion() CongestionMode {
	if p.controller == nil {
		return CongestionNewReno
	}
	return p.controller.Mode()
}

// IdleTimeout 返回最大空闲时间
func (p Policy) IdleTimeout() time.Duration {
	return p.idleTimeout
}

// KeepAliveInterval 返回 keep-alive 间隔；未启用时第二个返回值为 false
func (p Policy) KeepAliveInterval() (time.Duration, bool) {
	return p.keepAlive, p.keepAlive > 0
}

// String 返回策略摘要
func (p Policy) String() string {
	return fmt.Sprintf("congestion=%s idle=%s keepalive=%s", p.Congestion(), p.idleTimeout, p.keepAlive)
}

// QUICConfig 返回新的 quic.Config，调用方可以继续修改
func (p Policy) QUICConfig() *quic.Config {
	cfg := &quic.Config{
		MaxIdleTimeout:       p.idleTimeout,
		KeepAlivePeriod:      p.keepAlive,
		HandshakeIdleTimeout: min(p.idleTimeout, maxHandshakeIdle),
	}
	if p.controller != nil {
		p.controller.Apply(cfg)
	}
	return cfg
}
