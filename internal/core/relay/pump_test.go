package relay

import (
	"bytes"
	"testing"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

func mustCodec(t *testing.T, mode compress.Mode) compress.Codec {
	t.Helper()
	c, err := compress.New(mode)
	require.NoError(t, err)
	return c
}

// encodeFrames 把每条明文编码为一条完整记录
func encodeFrames(t *testing.T, mode compress.Mode, records ...[]byte) []byte {
	t.Helper()
	var out []byte
	for _, r := range records {
		body, err := compress.Encode(mode, r)
		require.NoError(t, err)
		out = appendFrame(out, body)
	}
	return out
}

// ============================================================================
//                              分帧
// ============================================================================

func TestPump_DecodeFragmented(t *testing.T) {
	big := bytes.Repeat([]byte("fragmented record "), 1000)
	records := [][]byte{[]byte("hello world"), big, []byte("!")}

	for _, mode := range []compress.Mode{compress.ModeLz4, compress.ModeZstd, compress.ModeSnappy} {
		t.Run(mode.String(), func(t *testing.T) {
			wire := encodeFrames(t, mode, records...)

			// 每次只交付 1 字节：长度头与负载都被拆开
			src := &chunkSource{data: wire, chunk: 1}
			dst := &recordingSink{}
			counters := &Counters{}

			p := NewPump(types.DirForward, src, dst, mustCodec(t, mode), OpDecode, counters)
			require.NoError(t, p.Run())

			want := bytes.Join(records, nil)
			assert.Equal(t, want, dst.buf.Bytes())
			assert.Len(t, dst.writes, len(records), "每条记录解码后写出一次")
			assert.Equal(t, 1, dst.closeWrites)

			snap := counters.Snapshot()
			assert.Equal(t, uint64(len(want)), snap.RawBytes)
			assert.Equal(t, uint64(len(wire)), snap.WireBytes)
		})
	}
}

func TestPump_DecodeCoalesced(t *testing.T) {
	records := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	wire := encodeFrames(t, compress.ModeLz4, records...)

	// 一次读取包含全部记录
	src := &chunkSource{data: wire, chunk: len(wire)}
	dst := &recordingSink{}

	p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeLz4), OpDecode, nil)
	require.NoError(t, p.Run())

	assert.Equal(t, "onetwothree", dst.buf.String())
	assert.Len(t, dst.writes, 3)
}

func TestPump_EncodeOneFramePerRead(t *testing.T) {
	plain := bytes.Repeat([]byte("abcdefgh"), 3000)
	src := &chunkSource{data: plain, chunk: 5000}
	dst := &recordingSink{}
	counters := &Counters{}

	p := NewPump(types.DirReverse, src, dst, mustCodec(t, compress.ModeLz4), OpEncode, counters)
	require.NoError(t, p.Run())

	// 每次读取产生一条完整记录，且每次 Write 恰好是一条记录
	require.Len(t, dst.writes, 5)
	var got []byte
	var wire int
	for _, w := range dst.writes {
		length, err := varint.ReadUvarint(bytes.NewReader(w))
		require.NoError(t, err)
		hdr := varint.UvarintSize(length)
		require.Equal(t, len(w), hdr+int(length))

		rec, err := compress.Decode(compress.ModeLz4, w[hdr:])
		require.NoError(t, err)
		got = append(got, rec...)
		wire += len(w)
	}
	assert.Equal(t, plain, got)
	assert.Equal(t, 1, dst.closeWrites)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(len(plain)), snap.RawBytes)
	assert.Equal(t, uint64(wire), snap.WireBytes)
}

func TestPump_IdentityVerbatim(t *testing.T) {
	plain := []byte("no framing in none mode")
	src := &chunkSource{data: plain, chunk: 4}
	dst := &recordingSink{}
	counters := &Counters{}

	p := NewPump(types.DirReverse, src, dst, nil, OpEncode, counters)
	require.NoError(t, p.Run())

	assert.Equal(t, plain, dst.buf.Bytes())
	assert.Len(t, dst.writes, 6)

	snap := counters.Snapshot()
	assert.Equal(t, snap.RawBytes, snap.WireBytes)
	assert.Equal(t, uint64(len(plain)), snap.RawBytes)
}

// ============================================================================
//                              EOF
// ============================================================================

func TestPump_EOFOnce(t *testing.T) {
	for _, op := range []Op{OpEncode, OpDecode} {
		t.Run(op.String(), func(t *testing.T) {
			data := []byte("payload")
			if op == OpDecode {
				data = encodeFrames(t, compress.ModeLz4, data)
			}
			src := &chunkSource{data: data, chunk: 3}
			dst := &recordingSink{}

			p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeLz4), op, nil)
			require.NoError(t, p.Run())

			assert.Equal(t, 1, dst.closeWrites)
			assert.Zero(t, src.afterEOF, "EOF 之后不再读取")
			assert.Zero(t, src.closeReads, "泵不关闭自己的读方向")
		})
	}
}

func TestPump_ZeroLengthReadIsEOF(t *testing.T) {
	for _, mode := range []compress.Mode{compress.ModeNone, compress.ModeLz4} {
		src := &zeroSource{data: []byte("abc")}
		dst := &recordingSink{}

		p := NewPump(types.DirReverse, src, dst, mustCodec(t, mode), OpEncode, nil)
		require.NoError(t, p.Run())

		assert.Equal(t, 1, dst.closeWrites, "mode=%s", mode)
		assert.Zero(t, src.afterEOF, "mode=%s", mode)
	}

	// 解码：记录边界上的零长度读是干净的流结束
	src := &zeroSource{data: encodeFrames(t, compress.ModeLz4, []byte("abc"))}
	dst := &recordingSink{}

	p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeLz4), OpDecode, nil)
	require.NoError(t, p.Run())

	assert.Equal(t, "abc", dst.buf.String())
	assert.Equal(t, 1, dst.closeWrites)
	assert.Zero(t, src.afterEOF)
}

func TestPump_ZeroLengthReadInsideFrame(t *testing.T) {
	wire := encodeFrames(t, compress.ModeLz4, bytes.Repeat([]byte("abc"), 100))
	src := &zeroSource{data: wire[:len(wire)-5]}
	dst := &recordingSink{}

	p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeLz4), OpDecode, nil)
	err := p.Run()

	assert.ErrorIs(t, err, ErrTruncatedFrame)
	assert.Zero(t, dst.closeWrites)
	assert.Zero(t, src.afterEOF)
}

func TestPump_BufferLargerThanRecord(t *testing.T) {
	plain := bytes.Repeat([]byte("0123456789abcdef"), (3<<20)/32)
	src := &chunkSource{data: plain, chunk: len(plain)}
	wire := &recordingSink{}

	enc := NewPump(types.DirReverse, src, wire, mustCodec(t, compress.ModeLz4), OpEncode, nil)
	enc.bufSize = 2 << 20
	require.NoError(t, enc.Run())

	// 单次读取被限制在一条记录的上限之内
	assert.Len(t, wire.writes, 2)

	out := &recordingSink{}
	dec := NewPump(types.DirForward, &chunkSource{data: wire.buf.Bytes(), chunk: 4096},
		out, mustCodec(t, compress.ModeLz4), OpDecode, nil)
	dec.bufSize = 2 << 20
	require.NoError(t, dec.Run())
	assert.True(t, bytes.Equal(plain, out.buf.Bytes()))
}

func TestPump_EmptySource(t *testing.T) {
	src := &chunkSource{chunk: 8}
	dst := &recordingSink{}

	p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeZstd), OpDecode, nil)
	require.NoError(t, p.Run())

	assert.Empty(t, dst.writes)
	assert.Equal(t, 1, dst.closeWrites)
}

// ============================================================================
//                              错误
// ============================================================================

func TestPump_CorruptFrames(t *testing.T) {
	valid := encodeFrames(t, compress.ModeLz4, bytes.Repeat([]byte("x"), 500))

	hugeHdr := varint.ToUvarint(MaxFrameSize + 1)
	badVarint := bytes.Repeat([]byte{0xff}, 10)

	tests := []struct {
		name   string
		wire   []byte
		target error
	}{
		{"长度头截断", []byte{0x80}, ErrTruncatedFrame},
		{"负载截断", valid[:len(valid)-3], ErrTruncatedFrame},
		{"空记录", []byte{0x00}, ErrEmptyFrame},
		{"长度超限", hugeHdr, ErrFrameTooLarge},
		{"长度头溢出", badVarint, compress.ErrCorruptFrame},
		{"负载无法解压", appendFrame(nil, []byte{0x05, 0, 0, 0, 0xff, 0xff}), compress.ErrCorruptFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &chunkSource{data: tt.wire, chunk: 2}
			dst := &recordingSink{}

			p := NewPump(types.DirForward, src, dst, mustCodec(t, compress.ModeLz4), OpDecode, nil)
			err := p.Run()

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorIs(t, err, types.ErrDecode)
			assert.NotErrorIs(t, err, types.ErrIO)
			assert.Zero(t, dst.closeWrites, "出错时不发送半关闭")
		})
	}
}

func TestPump_IOErrors(t *testing.T) {
	t.Run("读取失败", func(t *testing.T) {
		src := &chunkSource{chunk: 4, err: errSourceBroke}
		dst := &recordingSink{}

		err := NewPump(types.DirReverse, src, dst, mustCodec(t, compress.ModeLz4), OpEncode, nil).Run()
		assert.ErrorIs(t, err, types.ErrIO)
		assert.ErrorIs(t, err, errSourceBroke)
		assert.NotErrorIs(t, err, types.ErrDecode)
		assert.Zero(t, dst.closeWrites)
	})

	t.Run("写入失败", func(t *testing.T) {
		src := &chunkSource{data: []byte("data"), chunk: 4}
		dst := &recordingSink{err: errSourceBroke}

		err := NewPump(types.DirForward, src, dst, nil, OpDecode, nil).Run()
		assert.ErrorIs(t, err, types.ErrIO)
		assert.Contains(t, err.Error(), "forward write")
	})
}
