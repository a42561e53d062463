// Package inflate decodes deflate-compressed ARC payloads.
//
// Compressed payloads are normally zlib streams (2-byte header, deflate body,
// Adler-32 trailer). Payloads without a valid zlib header are decoded as raw
// deflate.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/meigma/arc/internal/sizing"
)

// ErrTrailingData is returned when a raw deflate payload has bytes left over
// after its final block.
var ErrTrailingData = errors.New("inflate: trailing data after deflate stream")

// Format identifies the framing of a compressed payload.
type Format uint8

const (
	FormatZlib Format = iota
	FormatRaw
)

// String returns the human-readable name of the format.
func (f Format) String() string {
	switch f {
	case FormatZlib:
		return "zlib"
	case FormatRaw:
		return "deflate"
	default:
		return "unknown"
	}
}

// Detect reports whether data starts with a zlib header.
//
// The header is valid when the compression method is 8 (deflate), the window
// size fits in 32KiB, no preset dictionary is requested, and the two header
// bytes pass the FCHECK test.
func Detect(data []byte) Format {
	if len(data) < 2 {
		return FormatRaw
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0F != 8 || cmf>>4 > 7 {
		return FormatRaw
	}
	if flg&0x20 != 0 {
		return FormatRaw
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return FormatRaw
	}
	return FormatZlib
}

// Pool manages reusable zlib and flate readers to reduce allocation overhead.
type Pool struct {
	zlib  sync.Pool
	flate sync.Pool
}

// NewPool creates an empty decoder pool.
func NewPool() *Pool {
	return &Pool{}
}

// Decode inflates data and returns the decompressed bytes.
//
// If maxSize is non-zero and the output would exceed it, overflowErr is
// returned. Any other error means the stream is corrupt.
//
// A raw deflate payload must be consumed completely. Bytes left over after
// the final block return ErrTrailingData, since a damaged zlib header can
// otherwise decode as a short raw stream.
func (p *Pool) Decode(data []byte, maxSize uint64, overflowErr error) ([]byte, error) {
	format := Detect(data)
	br := bytes.NewReader(data)
	dec, release, err := p.get(format, br)
	if err != nil {
		return nil, err
	}
	defer release()

	out, err := sizing.ReadAllWithLimit(dec, maxSize, overflowErr)
	if err != nil {
		return nil, err
	}
	if format == FormatRaw && br.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, br.Len())
	}
	return out, nil
}

// get returns a reader for the given format reading from r.
// The caller must call the returned release function when done.
func (p *Pool) get(format Format, r io.Reader) (io.Reader, func(), error) {
	switch format {
	case FormatZlib:
		return p.getZlib(r)
	case FormatRaw:
		return p.getFlate(r)
	default:
		return nil, nil, fmt.Errorf("unknown payload format: %d", format)
	}
}

func (p *Pool) getZlib(r io.Reader) (io.Reader, func(), error) {
	if p == nil {
		dec, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() { _ = dec.Close() }, nil
	}

	if value, ok := p.zlib.Get().(io.ReadCloser); ok {
		if err := value.(zlib.Resetter).Reset(r, nil); err == nil { //nolint:errcheck,forcetypeassert // pool only holds zlib readers
			return value, p.releaseZlib(value), nil
		}
		_ = value.Close()
	}

	dec, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return dec, p.releaseZlib(dec), nil
}

func (p *Pool) releaseZlib(dec io.ReadCloser) func() {
	return func() {
		_ = dec.Close()
		p.zlib.Put(dec)
	}
}

func (p *Pool) getFlate(r io.Reader) (io.Reader, func(), error) {
	if p == nil {
		dec := flate.NewReader(r)
		return dec, func() { _ = dec.Close() }, nil
	}

	if value, ok := p.flate.Get().(io.ReadCloser); ok {
		if err := value.(flate.Resetter).Reset(r, nil); err == nil { //nolint:errcheck,forcetypeassert // pool only holds flate readers
			return value, p.releaseFlate(value), nil
		}
		_ = value.Close()
	}

	dec := flate.NewReader(r)
	return dec, p.releaseFlate(dec), nil
}

func (p *Pool) releaseFlate(dec io.ReadCloser) func() {
	return func() {
		_ = dec.Close()
		p.flate.Put(dec)
	}
}
