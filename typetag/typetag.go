// Package typetag maps the 32-bit type tags stored in ARC directory records
// to file extensions.
//
// The default table covers the resource classes seen in shipped Lost Planet
// archives. It is incomplete by construction: newer archives introduce tags
// that are not listed here. Additional tags can be merged from YAML files
// (see [Parse] and [Load]) without touching the container parser.
package typetag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownTag is returned when a type tag is absent from the registry.
var ErrUnknownTag = errors.New("arc: unknown type tag")

// defaultTags is the built-in tag table.
var defaultTags = map[uint32]string{
	1018003574: "tex",
	1156029294: "sdl",
	667850998:  "rtx",
	883475283:  "xfs",
	2047053644: "xfs",
	1815824644: "xfs",
	1471865736: "xfs",
	864821228:  "xfs",
	1414542962: "xfs",
	776455971:  "xfs",
	222029749:  "xfs",
	1696625072: "xfs",
	731104429:  "xfs",
	1010633733: "png",
	1437137716: "anm",
	272743838:  "mod",
	592277764:  "cdf",
	66773634:   "efa",
	553864336:  "arcs",
	697601978:  "dnrs",
	1813848179: "sreq",
	867062535:  "spac",
	1210801045: "esl",
	155808719:  "scst",
	873417209:  "sdst",
	941734221:  "ogg",
	131436703:  "strq",
	1289707753: "msg",
	1384607967: "efs",
	298329479:  "obja",
	490057515:  "hit",
	329180445:  "lmt",
	1592916818: "lcm",
	956357328:  "sbc",
	1023439125: "wed",
	1513942406: "rrd",
	1909891284: "osf",
	1311932796: "bfx",
	1412813435: "havok",
	1212519942: "seq0",
	641763256:  "fca",
	1332739548: "fcp",
}

// Registry resolves type tags to extensions.
//
// A Registry is immutable once constructed and safe for concurrent use.
type Registry struct {
	tags map[uint32]string
}

// Default returns a registry holding the built-in tag table.
func Default() *Registry {
	return &Registry{tags: maps.Clone(defaultTags)}
}

// New returns a registry holding exactly the given tags.
func New(tags map[uint32]string) *Registry {
	r := &Registry{tags: make(map[uint32]string, len(tags))}
	maps.Copy(r.tags, tags)
	return r
}

// Resolve returns the extension registered for tag.
// It returns an error wrapping ErrUnknownTag on a miss.
func (r *Registry) Resolve(tag uint32) (string, error) {
	ext, ok := r.Lookup(tag)
	if !ok {
		return "", fmt.Errorf("%w: %d (0x%08x)", ErrUnknownTag, tag, tag)
	}
	return ext, nil
}

// Lookup returns the extension for tag and whether it is registered.
func (r *Registry) Lookup(tag uint32) (string, bool) {
	if r == nil {
		return "", false
	}
	ext, ok := r.tags[tag]
	return ext, ok
}

// Merge returns a new registry containing the tags of r overlaid with the
// tags of other. Entries in other win on conflict. Neither input is modified.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := &Registry{tags: make(map[uint32]string, r.Len()+other.Len())}
	if r != nil {
		maps.Copy(merged.tags, r.tags)
	}
	if other != nil {
		maps.Copy(merged.tags, other.tags)
	}
	return merged
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tags)
}

// Tags returns the registered tags in ascending order.
func (r *Registry) Tags() []uint32 {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.tags))
}
