package arc

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts a stored or user-provided entry path to the
// slash-separated form used by [Entry.Path].
//
// It performs the following transformations:
//   - Converts backslashes to slashes: `models\char` → "models/char"
//   - Strips leading and trailing slashes: "/models/" → "models"
//   - Collapses consecutive slashes: "models//char" → "models/char"
//
// An empty result is returned as "". Path elements such as "." and ".."
// are preserved; extraction rejects them.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// BaseName returns the archive name derived from a container path: the
// final path element cut at its first dot.
//
//	BaseName("game/arc/pl0000.arc")     // "pl0000"
//	BaseName(`C:\lp\stage.s01.arc`)     // "stage"
func BaseName(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	name, _, _ := strings.Cut(base, ".")
	return name
}

// joinPath prefixes a normalized relative path with the archive name.
func joinPath(archiveName, rel string) string {
	switch {
	case archiveName == "":
		return rel
	case rel == "":
		return archiveName
	default:
		return archiveName + "/" + rel
	}
}
