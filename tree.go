package arc

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the role of a Node in the listing tree.
type Kind uint8

const (
	// KindArchive is the root node named after the archive.
	KindArchive Kind = iota

	// KindFolder is an intermediate path element.
	KindFolder

	// KindFile is a leaf carrying one entry.
	KindFile
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Placeholder is shown in listing columns that do not apply to a node.
const Placeholder = "-"

// ColumnHeaders are the listing column titles, in the order returned by
// [Node.Columns].
var ColumnHeaders = []string{
	"Name",
	"Type",
	"Compressed size",
	"Decompressed size",
	"Offset directory",
	"Offset data",
	"File count",
}

// Node is one element of the listing tree.
//
// For archive and folder nodes the sizes are running totals over every entry
// below the node, and FileCount is the number of entries below it at any
// depth. The column is titled "File count" for compatibility with existing
// listings even though it is not a count of direct children.
//
// For file nodes the sizes, offsets and Entry come from a single entry and
// FileCount is zero.
type Node struct {
	Label            string
	Kind             Kind
	CompressedSize   int64
	DecompressedSize int64
	FileCount        int

	// Entry is set for file nodes only.
	Entry *Entry

	Children []*Node

	// folders indexes non-file children by label for trees built by
	// BuildTree. Nodes assembled by hand leave it nil.
	folders map[string]*Node
}

// Type returns the listing type column: "arc" for the archive root,
// "folder" for folders, and the entry's extension for files.
func (n *Node) Type() string {
	switch n.Kind {
	case KindArchive:
		return "arc"
	case KindFolder:
		return "folder"
	default:
		if n.Entry == nil {
			return ""
		}
		return n.Entry.Extension
	}
}

// Columns returns the seven listing columns described by [ColumnHeaders].
func (n *Node) Columns() []string {
	recordOffset, dataOffset, fileCount := Placeholder, Placeholder, Placeholder
	if n.Kind == KindFile {
		if n.Entry != nil {
			recordOffset = strconv.FormatInt(n.Entry.RecordOffset, 10)
			dataOffset = strconv.FormatUint(uint64(n.Entry.DataOffset), 10)
		}
	} else {
		fileCount = strconv.Itoa(n.FileCount)
	}
	return []string{
		n.Label,
		n.Type(),
		strconv.FormatInt(n.CompressedSize, 10),
		strconv.FormatInt(n.DecompressedSize, 10),
		recordOffset,
		dataOffset,
		fileCount,
	}
}

// Child returns the last non-file child labelled label.
func (n *Node) Child(label string) *Node {
	if n.folders != nil {
		return n.folders[label]
	}
	for _, c := range slices.Backward(n.Children) {
		if c.Label == label && c.Kind != KindFile {
			return c
		}
	}
	return nil
}

// Find returns the node at the slash-separated path below n, or nil.
// The final element may name a file; earlier elements must name folders.
// When several files share the path, the last one is returned.
func (n *Node) Find(path string) *Node {
	path = NormalizePath(path)
	if path == "" {
		return n
	}
	cur := n
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if i == len(parts)-1 {
			for _, c := range slices.Backward(cur.Children) {
				if c.Label == part {
					return c
				}
			}
			return nil
		}
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Walk calls fn for n and every node below it in depth-first pre-order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// BuildTree groups entries by path element and returns the top-level nodes.
//
// Entries are visited in path order (byte-wise, stable) without reordering
// the caller's slice. For each entry the first path element becomes an
// archive node, intermediate elements become folder nodes, and the last
// element always becomes a new file node, so entries sharing a path appear
// as sibling files. Every archive or folder node an entry passes through
// adds the entry's sizes to its totals and increments its FileCount.
func BuildTree(entries []*Entry) []*Node {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b *Entry) int {
		return cmp.Compare(a.Path, b.Path)
	})

	top := &Node{folders: make(map[string]*Node)}
	for _, e := range sorted {
		parts := strings.Split(e.Path, "/")
		parent := top
		for i, part := range parts {
			if i == len(parts)-1 {
				parent.Children = append(parent.Children, &Node{
					Label:            part,
					Kind:             KindFile,
					CompressedSize:   int64(e.CompressedSize),
					DecompressedSize: e.DecompressedSize,
					Entry:            e,
				})
				break
			}

			node := parent.Child(part)
			if node == nil {
				kind := KindFolder
				if i == 0 {
					kind = KindArchive
				}
				node = &Node{Label: part, Kind: kind, folders: make(map[string]*Node)}
				parent.addFolder(node)
			}
			node.CompressedSize += int64(e.CompressedSize)
			node.DecompressedSize += e.DecompressedSize
			node.FileCount++
			parent = node
		}
	}
	return top.Children
}

func (n *Node) addFolder(c *Node) {
	n.folders[c.Label] = c
	n.Children = append(n.Children, c)
}
