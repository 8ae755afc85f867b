package forward

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("reset") }

func TestPreamble_RoundTrip(t *testing.T) {
	for _, mode := range []compress.Mode{compress.ModeNone, compress.ModeLz4, compress.ModeZstd, compress.ModeSnappy, compress.ModeBrotli} {
		var buf bytes.Buffer
		require.NoError(t, writePreamble(&buf, mode))
		assert.Equal(t, []byte{PreambleVersion, byte(mode)}, buf.Bytes())

		got, err := readPreamble(&buf, mode)
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
}

func TestPreamble_Mismatch(t *testing.T) {
	b := encodePreamble(compress.ModeLz4)
	got, err := readPreamble(bytes.NewReader(b[:]), compress.ModeZstd)
	assert.ErrorIs(t, err, ErrCompressionMismatch)
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Equal(t, compress.ModeLz4, got)
}

func TestPreamble_Bad(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"空流", nil},
		{"只有版本", []byte{PreambleVersion}},
		{"未知版本", []byte{2, byte(compress.ModeNone)}},
		{"未知模式", []byte{PreambleVersion, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readPreamble(bytes.NewReader(tt.data), compress.ModeNone)
			assert.ErrorIs(t, err, ErrBadPreamble)
			assert.ErrorIs(t, err, types.ErrDecode)
		})
	}

	_, err := readPreamble(failingReader{}, compress.ModeNone)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.NotErrorIs(t, err, ErrBadPreamble)
}
