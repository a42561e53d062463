// Package sink writes extracted entries below a destination directory.
package sink

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrCreateDir is returned when a parent directory for an entry cannot be created.
var ErrCreateDir = errors.New("arc: cannot create directory")

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content visible at the final path.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// FileSink writes entries to the filesystem.
//
// By default, files are written to a temporary file in the same directory
// and renamed to the final path on Commit, so a partially written file is
// never visible at the final path. Existing files are replaced.
//
// All paths are resolved inside an os.Root opened on the destination, so
// entry paths cannot escape it.
type FileSink struct {
	destDir     string
	directWrite bool
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) Option {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// New creates a FileSink that writes below destDir.
func New(destDir string, opts ...Option) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the host path an entry with the given slash-separated name
// is written to.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.destDir, filepath.FromSlash(name))
}

// Writer returns a Committer for the slash-separated name, creating missing
// parent directories first.
func (s *FileSink) Writer(name string) (Committer, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "unpack", Path: name, Err: fs.ErrInvalid}
	}
	destPath := s.Path(name)
	destRel := filepath.FromSlash(name)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if err := root.MkdirAll(filepath.Dir(destRel), 0o750); err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateDir, filepath.Dir(destPath), err)
	}

	if s.directWrite {
		file, err := root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		return &directCommitter{destPath: destPath, destRel: destRel, file: file, root: root}, nil
	}

	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".arc-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{
		destPath: destPath,
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
		root:     root,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	destRel  string
	tempFile *os.File
	tempRel  string
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it over the final path.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	// Temp files are created 0600; extracted files get regular permissions.
	if err := c.root.Chmod(c.tempRel, 0o644); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod: %w", err)
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return c.root.Close()
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.tempRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destPath string
	destRel  string
	file     *os.File
	root     *os.Root
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file.
func (c *directCommitter) Commit() error {
	if err := c.file.Close(); err != nil {
		_ = c.root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file %s: %w", c.destPath, err)
	}
	return c.root.Close()
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	if err := c.root.Remove(c.destRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
