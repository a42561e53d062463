package arc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// HeaderSize is the size of the container header in bytes.
const HeaderSize = 8

// Header is the fixed 8-byte container header.
//
// Layout (little-endian):
//
//	[0,4)  magic tag, NUL padded
//	[4,6)  version
//	[6,8)  entry count
type Header struct {
	// Magic is the format tag with NUL padding removed. It is not validated.
	Magic string

	// Version is the container format version.
	Version uint16

	// EntryCount is the number of directory records following the header.
	EntryCount uint16
}

// ReadHeader reads the header at offset 0 of src.
//
// Returns ErrTruncatedHeader if src is shorter than [HeaderSize] bytes and
// ErrInvalidMagic if the magic tag is not valid UTF-8.
func ReadHeader(src ByteSource) (Header, error) {
	if src.Size() < HeaderSize {
		return Header{}, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedHeader, src.Size(), HeaderSize)
	}
	var buf [HeaderSize]byte
	if err := readFull(src, buf[:], 0); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrTruncatedHeader, err)
	}
	return parseHeader(buf[:])
}

func parseHeader(b []byte) (Header, error) {
	magic := bytes.Trim(b[0:4], "\x00")
	if !utf8.Valid(magic) {
		return Header{}, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}
	return Header{
		Magic:      string(magic),
		Version:    binary.LittleEndian.Uint16(b[4:6]),
		EntryCount: binary.LittleEndian.Uint16(b[6:8]),
	}, nil
}

// readFull fills p from src at off. A short read is reported as
// io.ErrUnexpectedEOF.
func readFull(src io.ReaderAt, p []byte, off int64) error {
	n, err := src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
