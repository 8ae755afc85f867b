package relay

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
//                              TCP 适配
// ============================================================================

func TestConnDuplex_CloseWriteSendsEOF(t *testing.T) {
	a, b := tcpPair(t)
	d := SplitConn(a)

	_, err := d.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, d.CloseWrite())

	require.NoError(t, b.SetReadDeadline(time.Now().Add(5*time.Second)))
	data, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(data))
}

func TestConnDuplex_AbortWriteResets(t *testing.T) {
	a, b := tcpPair(t)
	d := SplitConn(a)

	require.NoError(t, d.AbortWrite())
	assert.NoError(t, d.AbortWrite())
	assert.NoError(t, d.Close(), "中止后 Close 为空操作")

	// 对端读到 connection reset 而不是 EOF
	require.NoError(t, b.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err := io.ReadAll(b)
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "连接未被重置")
	}
}
