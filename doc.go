// Package arc reads ARC game-archive containers and extracts their entries.
//
// An ARC container is a flat "directory + blob" file:
//   - Header: 4-byte magic, little-endian u16 version, little-endian u16 entry count
//   - Directory: one fixed 80-byte record per entry, immediately after the header
//   - Payload region: raw or deflate-compressed bytes referenced by each record
//
// Opening an archive is eager: the header, every directory record and every
// payload are read into memory before [Open] returns, and the file handle is
// closed. Listing ([Archive.Listing]) and extraction ([Archive.Unpack]) work
// on the cached entries only.
//
// # Quick Start
//
//	a, err := arc.Open("game/arc/pl0000.arc")
//	if err != nil {
//	    return err
//	}
//	root := a.Listing()
//	fmt.Println(root.Columns())
//
//	stats, err := a.Unpack("extracted")
//
// Entries are written to dest/<archive name>/<relative path>.<extension>,
// where the extension comes from the entry's type tag (see package typetag).
package arc
