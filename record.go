package arc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"unicode/utf8"

	"github.com/meigma/arc/internal/inflate"
	"github.com/meigma/arc/internal/sizing"
	"github.com/meigma/arc/typetag"
)

const (
	// RecordSize is the size of one directory record in bytes.
	RecordSize = 80

	// SizeBias is subtracted from the stored decompressed-size field.
	SizeBias = 0x40000000

	pathFieldSize = 64
)

// ResolveFunc maps a type tag to a file extension.
type ResolveFunc func(tag uint32) (string, error)

// Entry is one file stored in a container.
//
// Entries are created while the archive loads and never change afterwards.
type Entry struct {
	// Index is the 0-based position of the record in the directory.
	Index int

	// Path is the slash-separated path with the archive name as its first
	// element, e.g. "pl0000/models/char/hero.mdl".
	Path string

	// Name is the final element of Path.
	Name string

	// Extension is resolved from TypeTag. It has no leading dot.
	Extension string

	// TypeTag is the raw type tag as stored.
	TypeTag uint32

	// CompressedSize is the payload length. Zero means the entry is stored.
	CompressedSize uint32

	// DecompressedSize is the stored field minus SizeBias.
	DecompressedSize int64

	// DataOffset is the absolute offset of the payload in the container.
	DataOffset uint32

	// RecordOffset is the absolute offset of the entry's directory record.
	RecordOffset int64

	data []byte
}

// Data returns the payload bytes exactly as stored in the container.
// The returned slice must not be modified.
func (e *Entry) Data() []byte {
	return e.data
}

// Compressed reports whether the payload is deflate-compressed.
func (e *Entry) Compressed() bool {
	return e.CompressedSize > 0
}

// TargetPath returns the slash-separated path the entry is extracted to,
// relative to the destination directory.
func (e *Entry) TargetPath() string {
	return e.Path + "." + e.Extension
}

// content returns the payload, inflated if the entry is compressed.
func (e *Entry) content(pool *inflate.Pool, maxSize uint64) ([]byte, error) {
	if !e.Compressed() {
		return e.data, nil
	}
	data, err := pool.Decode(e.data, maxSize, ErrSizeOverflow)
	if err != nil {
		if errors.Is(err, ErrSizeOverflow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	return data, nil
}

// ReadRecord reads directory record index from src and the payload it
// references.
//
// The record is located at headerSize + index*[RecordSize]. The entry's
// path is prefixed with archiveName. A nil resolve uses the default type
// tag registry. Failures are returned as *RecordError.
func ReadRecord(src ByteSource, archiveName string, headerSize int64, index int, resolve ResolveFunc) (*Entry, error) {
	return readRecord(src, archiveName, headerSize, index, resolve, 0)
}

func readRecord(src ByteSource, archiveName string, headerSize int64, index int, resolve ResolveFunc, maxSize uint64) (*Entry, error) {
	offset := headerSize + int64(index)*RecordSize
	e, err := parseRecord(src, archiveName, offset, resolve, maxSize)
	if err != nil {
		return nil, &RecordError{Index: index, Offset: offset, Err: err}
	}
	e.Index = index
	return e, nil
}

func parseRecord(src ByteSource, archiveName string, offset int64, resolve ResolveFunc, maxSize uint64) (*Entry, error) {
	if offset < 0 || offset+RecordSize > src.Size() {
		return nil, fmt.Errorf("%w: record ends at %d, source has %d bytes", ErrTruncatedRecord, offset+RecordSize, src.Size())
	}
	var buf [RecordSize]byte
	if err := readFull(src, buf[:], offset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}

	rawPath := bytes.Trim(buf[:pathFieldSize], "\x00")
	if !utf8.Valid(rawPath) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, rawPath)
	}
	rel := NormalizePath(string(rawPath))
	if rel == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	fullPath := joinPath(archiveName, rel)

	tag := binary.LittleEndian.Uint32(buf[64:68])
	if resolve == nil {
		resolve = typetag.Default().Resolve
	}
	ext, err := resolve(tag)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Path:             fullPath,
		Name:             path.Base(fullPath),
		Extension:        ext,
		TypeTag:          tag,
		CompressedSize:   binary.LittleEndian.Uint32(buf[68:72]),
		DecompressedSize: int64(binary.LittleEndian.Uint32(buf[72:76])) - SizeBias,
		DataOffset:       binary.LittleEndian.Uint32(buf[76:80]),
		RecordOffset:     offset,
	}

	if maxSize > 0 && uint64(e.CompressedSize) > maxSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds limit %d", ErrSizeOverflow, e.CompressedSize, maxSize)
	}
	end, err := sizing.End(uint64(e.DataOffset), uint64(e.CompressedSize), ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	if end > src.Size() {
		return nil, fmt.Errorf("%w: payload ends at %d, source has %d bytes", ErrTruncatedRecord, end, src.Size())
	}
	n, err := sizing.ToInt(uint64(e.CompressedSize), ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	e.data = make([]byte, n)
	if err := readFull(src, e.data, int64(e.DataOffset)); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrTruncatedRecord, err)
	}
	return e, nil
}
