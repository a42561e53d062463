package arc

import (
	"errors"
	"fmt"

	"github.com/meigma/arc/internal/sink"
	"github.com/meigma/arc/typetag"
)

// Sentinel errors. Every one of them aborts the operation in progress.
var (
	// ErrOpenFailed is returned when the archive path cannot be opened for reading.
	ErrOpenFailed = errors.New("arc: cannot open archive")

	// ErrTruncatedHeader is returned when the source is shorter than the 8-byte header.
	ErrTruncatedHeader = errors.New("arc: truncated header")

	// ErrTruncatedRecord is returned when a directory record or the payload it
	// references extends past the end of the source.
	ErrTruncatedRecord = errors.New("arc: truncated record")

	// ErrUnknownTypeTag is returned when a record's type tag is not registered.
	ErrUnknownTypeTag = typetag.ErrUnknownTag

	// ErrInvalidMagic is returned when the header's magic tag is not valid UTF-8.
	ErrInvalidMagic = errors.New("arc: invalid magic")

	// ErrInvalidPath is returned when a record's path field is empty or not
	// valid UTF-8.
	ErrInvalidPath = errors.New("arc: invalid entry path")

	// ErrDestinationMissing is returned when the unpack destination does not exist.
	ErrDestinationMissing = errors.New("arc: destination does not exist")

	// ErrDirectoryCreateFailed is returned when a directory needed for an entry
	// cannot be created.
	ErrDirectoryCreateFailed = sink.ErrCreateDir

	// ErrDecompression is returned when a payload does not inflate cleanly.
	ErrDecompression = errors.New("arc: decompression failed")

	// ErrSizeOverflow is returned when a size exceeds the configured limit or
	// cannot be represented.
	ErrSizeOverflow = errors.New("arc: size overflow")

	// ErrSizeMismatch is returned by strict-size unpacking when an inflated
	// payload does not match the record's decompressed size.
	ErrSizeMismatch = errors.New("arc: decompressed size mismatch")
)

// RecordError describes a failure to load one directory record.
type RecordError struct {
	// Index is the 0-based position of the record in the directory.
	Index int
	// Offset is the absolute byte offset of the record.
	Offset int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("arc: record %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// EntryError describes a failure to extract one entry.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("arc: unpack %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
