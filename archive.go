package arc

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/arc/internal/inflate"
	"github.com/meigma/arc/typetag"
)

// Archive is a fully loaded ARC container.
//
// All directory records and payloads are held in memory; an Archive keeps
// no file handle open. Archives are safe for concurrent reads.
type Archive struct {
	name        string
	header      Header
	entries     []*Entry
	byPath      map[string]*Entry
	registry    *typetag.Registry
	fallback    string
	maxFileSize uint64
	progress    ProgressFunc
	logger      *slog.Logger
	pool        *inflate.Pool
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open reads the container at path.
//
// The archive name is the file's base name cut at its first dot. The file is
// closed before Open returns. If the file cannot be opened, the returned
// error wraps ErrOpenFailed and the underlying OS error.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	src, err := newFileSource(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	return OpenSource(BaseName(path), src, opts...)
}

// OpenSource reads a container from src using name as the archive name.
//
// OpenSource reads everything it needs before returning and does not retain
// src. Closing src, if required, remains the caller's responsibility.
func OpenSource(name string, src ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		name:     name,
		registry: typetag.Default(),
		pool:     inflate.NewPool(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.load(src); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenAll opens every path concurrently and returns the archives in the
// order of paths.
//
// Each archive is loaded exactly as by [Open]. The first failure cancels the
// remaining opens and is returned.
func OpenAll(ctx context.Context, paths []string, opts ...Option) ([]*Archive, error) {
	archives := make([]*Archive, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := Open(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			archives[i] = a
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return archives, nil
}

func (a *Archive) load(src ByteSource) error {
	header, err := ReadHeader(src)
	if err != nil {
		return err
	}
	a.header = header

	total := int(header.EntryCount)
	a.entries = make([]*Entry, 0, total)
	a.byPath = make(map[string]*Entry, total)

	var loaded uint64
	for i := range total {
		e, err := readRecord(src, a.name, HeaderSize, i, a.resolve, a.maxFileSize)
		if err != nil {
			return err
		}
		a.entries = append(a.entries, e)
		a.byPath[e.Path] = e
		loaded += uint64(e.CompressedSize)

		a.log().Debug("loaded entry",
			"index", e.Index,
			"path", e.Path,
			"type", e.Extension,
			"compressed", e.CompressedSize,
			"decompressed", e.DecompressedSize)
		if a.progress != nil {
			a.progress(ProgressEvent{
				Stage:      StageLoading,
				Path:       e.Path,
				BytesDone:  loaded,
				FilesDone:  i + 1,
				FilesTotal: total,
			})
		}
	}

	a.log().Debug("loaded archive",
		"name", a.name,
		"magic", header.Magic,
		"version", header.Version,
		"entries", total)
	return nil
}

// resolve maps a type tag through the registry, applying the fallback
// extension when one is configured.
func (a *Archive) resolve(tag uint32) (string, error) {
	ext, err := a.registry.Resolve(tag)
	if err == nil || a.fallback == "" {
		return ext, err
	}
	a.log().Warn("unknown type tag, using fallback extension",
		"tag", tag,
		"extension", a.fallback)
	return a.fallback, nil
}

// Name returns the archive name used as the root element of entry paths.
func (a *Archive) Name() string {
	return a.name
}

// Header returns the container header.
func (a *Archive) Header() Header {
	return a.header
}

// Entries returns the entries in directory order.
// The returned slice must not be modified.
func (a *Archive) Entries() []*Entry {
	return a.entries
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Lookup returns the entry stored at path.
//
// The path includes the archive name, e.g. "pl0000/models/hero". Backslashes
// are accepted. When several records share a path, the last one wins.
func (a *Archive) Lookup(path string) (*Entry, bool) {
	e, ok := a.byPath[NormalizePath(path)]
	return e, ok
}

// ReadFile returns the content of the entry at path, inflated if the entry
// is compressed. The caller owns the returned slice.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	e, ok := a.Lookup(path)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	data, err := e.content(a.pool, a.maxFileSize)
	if err != nil {
		return nil, &EntryError{Path: e.Path, Err: err}
	}
	if !e.Compressed() {
		data = bytes.Clone(data)
	}
	return data, nil
}

// Listing builds the directory tree of the archive and returns its root.
//
// The tree is rebuilt on every call. An empty archive yields a root with no
// children.
func (a *Archive) Listing() *Node {
	roots := BuildTree(a.entries)
	for _, r := range roots {
		if r.Kind == KindArchive && r.Label == a.name {
			return r
		}
	}

	root := &Node{Label: a.name, Kind: KindArchive}
	for _, r := range roots {
		root.Children = append(root.Children, r)
		root.CompressedSize += r.CompressedSize
		root.DecompressedSize += r.DecompressedSize
		if r.Kind == KindFile {
			root.FileCount++
		} else {
			root.FileCount += r.FileCount
		}
	}
	return root
}

// Unpack extracts every entry below dest. See [Unpack].
//
// The archive's logger, progress callback, and file size limit apply unless
// overridden by opts.
func (a *Archive) Unpack(dest string, opts ...UnpackOption) (*UnpackStats, error) {
	base := []UnpackOption{
		UnpackWithLogger(a.logger),
		UnpackWithMaxFileSize(a.maxFileSize),
		unpackWithPool(a.pool),
	}
	if a.progress != nil {
		base = append(base, UnpackWithProgress(a.progress))
	}
	return Unpack(a.entries, dest, append(base, opts...)...)
}
