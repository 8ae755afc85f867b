package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestRateMeter_Window(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	r.Add(600)
	assert.Equal(t, 10.0, r.Rate())
	assert.Equal(t, uint64(600), r.Total())

	mock.Add(30 * time.Second)
	r.Add(1200)
	assert.Equal(t, 30.0, r.Rate())

	// 第一个桶滑出窗口
	mock.Add(31 * time.Second)
	assert.Equal(t, 20.0, r.Rate())

	// 超过整个窗口没有数据
	mock.Add(2 * time.Minute)
	assert.Zero(t, r.Rate())
	assert.Equal(t, uint64(1800), r.Total())
}

func TestRateMeter_SubSecond(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	for i := 0; i < 4; i++ {
		r.Add(15)
		mock.Add(300 * time.Millisecond)
	}
	assert.Equal(t, 1.0, r.Rate())
}

func TestRateMeter_Reset(t *testing.T) {
	r := NewRateMeter(nil)
	r.Add(100)
	r.Reset()
	assert.Zero(t, r.Total())
	assert.Zero(t, r.Rate())
}
