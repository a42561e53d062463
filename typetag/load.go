package typetag

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTag is returned when a tag file contains a malformed entry.
var ErrInvalidTag = errors.New("arc: invalid tag entry")

// file is the on-disk layout of a tag file:
//
//	tags:
//	  "1018003574": tex
//	  "0x3cad8076": tex
type file struct {
	Tags map[string]string `yaml:"tags"`
}

// Parse decodes a YAML tag file into a registry.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tag file: %w", err)
	}
	return FromStrings(f.Tags)
}

// Load reads and decodes the YAML tag file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read tag file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// FromStrings builds a registry from string keys. Keys are decimal or
// 0x-prefixed hexadecimal; extensions must be non-empty and are stored
// without a leading dot.
func FromStrings(tags map[string]string) (*Registry, error) {
	r := &Registry{tags: make(map[uint32]string, len(tags))}
	for key, ext := range tags {
		tag, err := strconv.ParseUint(strings.TrimSpace(key), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrInvalidTag, key, err)
		}
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			return nil, fmt.Errorf("%w: key %q: empty extension", ErrInvalidTag, key)
		}
		r.tags[uint32(tag)] = ext
	}
	return r, nil
}
