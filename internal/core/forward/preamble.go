package forward

import (
	"fmt"
	"io"

	"github.com/dep2p/go-quictun/internal/core/compress"
	"github.com/dep2p/go-quictun/pkg/types"
)

const (
	// PreambleVersion 流前导版本
	PreambleVersion byte = 1

	preambleSize = 2
)

func encodePreamble(mode compress.Mode) [preambleSize]byte {
	return [preambleSize]byte{PreambleVersion, byte(mode)}
}

// writePreamble 写入流前导
func writePreamble(w io.Writer, mode compress.Mode) error {
	b := encodePreamble(mode)
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("%w: write preamble: %w", types.ErrIO, err)
	}
	return nil
}

// readPreamble 读取并校验流前导
//
// 版本未知或模式无效返回 ErrBadPreamble；模式与 want 不同返回 ErrCompressionMismatch。
// 返回值是对端声明的模式。
func readPreamble(r io.Reader, want compress.Mode) (compress.Mode, error) {
	var b [preambleSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("%w: %w", ErrBadPreamble, err)
		}
		return 0, fmt.Errorf("%w: read preamble: %w", types.ErrIO, err)
	}

	if b[0] != PreambleVersion {
		return 0, fmt.Errorf("%w: version %d", ErrBadPreamble, b[0])
	}
	mode := compress.Mode(b[1])
	if !mode.Valid() {
		return 0, fmt.Errorf("%w: mode id %d", ErrBadPreamble, b[1])
	}
	if mode != want {
		return mode, fmt.Errorf("%w: peer %s, local %s", ErrCompressionMismatch, mode, want)
	}
	return mode, nil
}
