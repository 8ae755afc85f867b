package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// rateWindow 速率窗口的桶数，每桶 1 秒
const rateWindow = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率。
type RateMeter struct {
	clock clock.Clock

	mu       sync.Mutex
	buckets  [rateWindow]uint64
	lastIdx  int
	lastTime time.Time
	total    uint64
}

// NewRateMeter 创建速率计算器，clk 为 nil 时使用系统时钟
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{
		clock:    clk,
		lastTime: clk.Now(),
	}
}

// advance 把窗口推进到当前时间，清空经过的桶
func (r *RateMeter) advance() {
	now := r.clock.Now()
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= rateWindow {
		r.buckets = [rateWindow]uint64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateWindow
			r.buckets[r.lastIdx] = 0
		}
	}
	// 保留不足一秒的余量，避免桶边界漂移
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Add 添加字节数到当前桶
func (r *RateMeter) Add(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	r.buckets[r.lastIdx] += n
	r.total += n
}

// Rate 返回最近 60 秒的平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	var sum uint64
	for _, v := range r.buckets {
		sum += v
	}
	return float64(sum) / rateWindow
}

// Total 返回累计总量
func (r *RateMeter) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [rateWindow]uint64{}
	r.lastIdx = 0
	r.lastTime = r.clock.Now()
	r.total = 0
}
