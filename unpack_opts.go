package arc

import (
	"log/slog"

	"github.com/meigma/arc/internal/inflate"
)

// UnpackOption configures Unpack.
type UnpackOption func(*unpackConfig)

type unpackConfig struct {
	logger          *slog.Logger
	progress        ProgressFunc
	continueOnError bool
	strictSize      bool
	directWrites    bool
	maxFileSize     uint64
	pool            *inflate.Pool
}

// UnpackWithLogger sets the logger for extraction diagnostics.
func UnpackWithLogger(logger *slog.Logger) UnpackOption {
	return func(c *unpackConfig) {
		c.logger = logger
	}
}

// UnpackWithProgress sets a callback that receives an event after each
// entry is written.
func UnpackWithProgress(fn ProgressFunc) UnpackOption {
	return func(c *unpackConfig) {
		c.progress = fn
	}
}

// UnpackWithContinueOnError keeps extracting after an entry fails.
// Failures are collected in UnpackStats.Failed.
// By default, the first failure aborts the unpack.
func UnpackWithContinueOnError(enabled bool) UnpackOption {
	return func(c *unpackConfig) {
		c.continueOnError = enabled
	}
}

// UnpackWithStrictSize fails an entry with ErrSizeMismatch when its inflated
// length differs from the record's decompressed size.
func UnpackWithStrictSize(enabled bool) UnpackOption {
	return func(c *unpackConfig) {
		c.strictSize = enabled
	}
}

// UnpackWithDirectWrites writes files in place instead of through a temporary
// file that is renamed on completion. A failed entry may then leave a partial
// file behind.
func UnpackWithDirectWrites(enabled bool) UnpackOption {
	return func(c *unpackConfig) {
		c.directWrites = enabled
	}
}

// UnpackWithMaxFileSize limits the inflated size of each entry.
// Set limit to 0 to disable the limit.
func UnpackWithMaxFileSize(limit uint64) UnpackOption {
	return func(c *unpackConfig) {
		c.maxFileSize = limit
	}
}

func unpackWithPool(pool *inflate.Pool) UnpackOption {
	return func(c *unpackConfig) {
		c.pool = pool
	}
}
