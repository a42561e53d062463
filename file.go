package arc

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// ByteSource provides random access to a container.
//
// Implementations exist for local files, in-memory buffers ([NewBytesSource])
// and HTTP range requests (package arc/http).
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", f.Name())
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// bytesSource serves a container held in memory.
type bytesSource struct {
	*bytes.Reader
}

// NewBytesSource returns a ByteSource backed by data.
// The slice is retained; callers must not modify it while it is in use.
func NewBytesSource(data []byte) ByteSource {
	return bytesSource{bytes.NewReader(data)}
}

// Interface compliance.
var (
	_ ByteSource = (*fileSource)(nil)
	_ ByteSource = bytesSource{}
)
