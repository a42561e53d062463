package arc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/meigma/arc/internal/inflate"
	"github.com/meigma/arc/internal/sink"
)

// UnpackStats summarizes an Unpack call.
type UnpackStats struct {
	// Written is the number of entries written to disk.
	Written int

	// TotalBytes is the number of bytes written.
	TotalBytes uint64

	// Failed lists the entries that could not be written. It is only
	// populated when UnpackWithContinueOnError is enabled.
	Failed []*EntryError
}

// Unpack writes entries below dest, in slice order.
//
// Each entry is written to dest/<Path>.<Extension>; missing directories are
// created and existing files are replaced, so repeated calls produce the same
// output. Compressed payloads are inflated; stored payloads are written as is.
//
// dest must be an existing directory, otherwise ErrDestinationMissing is
// returned and nothing is written. By default the first failing entry aborts
// the call and is returned as *EntryError; entries written before it remain
// on disk. With UnpackWithContinueOnError the remaining entries are still
// attempted and the failures are joined into the returned error.
func Unpack(entries []*Entry, dest string, opts ...UnpackOption) (*UnpackStats, error) {
	cfg := unpackConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pool == nil {
		cfg.pool = inflate.NewPool()
	}
	log := cfg.log()

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDestinationMissing, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDestinationMissing, dest)
	}

	s := sink.New(dest, sink.WithDirectWrites(cfg.directWrites))
	stats := &UnpackStats{}
	for i, e := range entries {
		n, err := unpackEntry(s, e, &cfg)
		if err != nil {
			entryErr := &EntryError{Path: e.TargetPath(), Err: err}
			if !cfg.continueOnError {
				return stats, entryErr
			}
			log.Warn("skipping entry", "path", e.TargetPath(), "error", err)
			stats.Failed = append(stats.Failed, entryErr)
			continue
		}
		stats.Written++
		stats.TotalBytes += uint64(n)

		log.Debug("wrote entry", "path", s.Path(e.TargetPath()), "bytes", n)
		if cfg.progress != nil {
			cfg.progress(ProgressEvent{
				Stage:      StageExtracting,
				Path:       e.Path,
				BytesDone:  stats.TotalBytes,
				FilesDone:  i + 1,
				FilesTotal: len(entries),
			})
		}
	}

	if len(stats.Failed) > 0 {
		errs := make([]error, len(stats.Failed))
		for i, f := range stats.Failed {
			errs[i] = f
		}
		return stats, errors.Join(errs...)
	}
	return stats, nil
}

func unpackEntry(s *sink.FileSink, e *Entry, cfg *unpackConfig) (int, error) {
	data, err := e.content(cfg.pool, cfg.maxFileSize)
	if err != nil {
		return 0, err
	}
	if cfg.strictSize && e.Compressed() && int64(len(data)) != e.DecompressedSize {
		return 0, fmt.Errorf("%w: got %d bytes, record says %d", ErrSizeMismatch, len(data), e.DecompressedSize)
	}

	w, err := s.Writer(e.TargetPath())
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return 0, fmt.Errorf("write: %w", err)
	}
	if err := w.Commit(); err != nil {
		return 0, err
	}
	return len(data), nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *unpackConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
