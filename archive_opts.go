package arc

import (
	"log/slog"

	"github.com/meigma/arc/typetag"
)

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for load diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithRegistry sets the type tag registry used to resolve extensions.
// Defaults to [typetag.Default]. A nil registry is ignored.
func WithRegistry(r *typetag.Registry) Option {
	return func(a *Archive) {
		if r != nil {
			a.registry = r
		}
	}
}

// WithUnknownTagFallback substitutes ext for type tags missing from the
// registry instead of failing with ErrUnknownTypeTag. Each substitution is
// logged at warn level. An empty ext restores the default strict behavior.
func WithUnknownTagFallback(ext string) Option {
	return func(a *Archive) {
		a.fallback = ext
	}
}

// WithMaxFileSize limits the per-entry payload size, both as stored and
// after inflation. Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithProgress sets a callback that receives an event after each entry is
// loaded. The callback is also used by [Archive.Unpack].
func WithProgress(fn ProgressFunc) Option {
	return func(a *Archive) {
		a.progress = fn
	}
}
