// Package testutil builds synthetic ARC containers for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Type tags from the default registry, for readable fixtures.
const (
	TagTexture uint32 = 1018003574 // tex
	TagModel   uint32 = 272743838  // mod
	TagSound   uint32 = 941734221  // ogg
	TagMessage uint32 = 1289707753 // msg
)

const (
	headerSize = 8
	recordSize = 80
	sizeBias   = 0x40000000
)

// Entry describes one record of a synthetic container.
type Entry struct {
	// Path is written to the 64-byte path field as is, so it may use
	// backslashes.
	Path string

	TypeTag uint32

	// Content is the uncompressed file content.
	Content []byte

	// Compress stores Content as a zlib stream. Otherwise the record is
	// written with a zero compressed size.
	Compress bool

	// Payload, when non-nil, is stored verbatim as a compressed payload of
	// len(Payload) bytes, replacing Content.
	Payload []byte

	// RawDecompressedSize, when non-zero, is written to the decompressed
	// size field instead of len(Content)+bias.
	RawDecompressedSize uint32
}

// Build returns a container with magic "ARC" and version 7.
func Build(tb testing.TB, entries ...Entry) []byte {
	tb.Helper()
	return BuildWithHeader(tb, "ARC", 7, entries...)
}

// BuildWithHeader returns a container with the given header fields.
// Payloads follow the directory in record order.
func BuildWithHeader(tb testing.TB, magic string, version uint16, entries ...Entry) []byte {
	tb.Helper()

	dirEnd := headerSize + recordSize*len(entries)
	out := make([]byte, dirEnd)

	var m [4]byte
	copy(m[:], magic)
	copy(out[0:4], m[:])
	binary.LittleEndian.PutUint16(out[4:6], version)
	binary.LittleEndian.PutUint16(out[6:8], uint16(len(entries))) //nolint:gosec // fixtures are small

	for i, e := range entries {
		if len(e.Path) > 64 {
			tb.Fatalf("path %q longer than 64 bytes", e.Path)
		}

		payload, compressedSize := e.Content, uint32(0)
		switch {
		case e.Payload != nil:
			payload = e.Payload
			compressedSize = uint32(len(payload)) //nolint:gosec // fixtures are small
		case e.Compress:
			payload = Deflate(tb, e.Content)
			compressedSize = uint32(len(payload)) //nolint:gosec // fixtures are small
		}
		rawSize := e.RawDecompressedSize
		if rawSize == 0 {
			rawSize = uint32(len(e.Content)) + sizeBias //nolint:gosec // fixtures are small
		}

		rec := out[headerSize+i*recordSize : headerSize+(i+1)*recordSize]
		copy(rec[0:64], e.Path)
		binary.LittleEndian.PutUint32(rec[64:68], e.TypeTag)
		binary.LittleEndian.PutUint32(rec[68:72], compressedSize)
		binary.LittleEndian.PutUint32(rec[72:76], rawSize)
		binary.LittleEndian.PutUint32(rec[76:80], uint32(len(out))) //nolint:gosec // fixtures are small

		out = append(out, payload...)
	}
	return out
}

// Deflate returns data compressed as a zlib stream.
func Deflate(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
