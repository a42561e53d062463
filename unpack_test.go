package arc

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arc/internal/testutil"
)

// readTree returns every regular file below dir keyed by slash path.
func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestUnpack(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()

	stats, err := a.Unpack(dest)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)
	assert.Empty(t, stats.Failed)
	assert.Equal(t, uint64(256+300), stats.TotalBytes)

	assert.Equal(t, map[string][]byte{
		"pl0000/models/char/hero.mdl.mod": bytes.Repeat([]byte("mesh"), 64),
		"pl0000/tex/hero_BM.tex":          bytes.Repeat([]byte{0xAB}, 300),
		"pl0000/message/intro.msg":        {},
	}, readTree(t, dest))
}

func TestUnpackInflatesToDecompressedSize(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()
	_, err := a.Unpack(dest, UnpackWithStrictSize(true))
	require.NoError(t, err)

	for _, e := range a.Entries() {
		if !e.Compressed() {
			continue
		}
		info, err := os.Stat(filepath.Join(dest, filepath.FromSlash(e.TargetPath())))
		require.NoError(t, err)
		assert.Equal(t, e.DecompressedSize, info.Size(), e.Path)
	}
}

func TestUnpackStoredRoundTrip(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{Path: "raw", TypeTag: testutil.TagTexture, Content: []byte("stored bytes")})
	a, err := OpenSource("a", NewBytesSource(data))
	require.NoError(t, err)
	e := a.Entries()[0]

	dest := t.TempDir()
	_, err = a.Unpack(dest)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dest, "a", "raw.tex"))
	require.NoError(t, err)
	start := int64(e.DataOffset)
	assert.Equal(t, data[start:start+int64(e.CompressedSize)], got)
}

func TestUnpackRawDeflate(t *testing.T) {
	t.Parallel()

	content := []byte("raw deflate payload, raw deflate payload")
	zl := testutil.Deflate(t, content)
	raw := zl[2 : len(zl)-4] // strip zlib header and adler32 trailer

	data := testutil.Build(t, testutil.Entry{Path: "r", TypeTag: testutil.TagTexture, Payload: raw})
	a, err := OpenSource("a", NewBytesSource(data))
	require.NoError(t, err)

	got, err := a.ReadFile("a/r")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUnpackIdempotent(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()

	_, err := a.Unpack(dest)
	require.NoError(t, err)
	first := readTree(t, dest)

	_, err = a.Unpack(dest)
	require.NoError(t, err)
	assert.Equal(t, first, readTree(t, dest))
}

func TestUnpackOverwritesLongerFile(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()
	target := filepath.Join(dest, "pl0000", "tex", "hero_BM.tex")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, bytes.Repeat([]byte{0}, 4096), 0o600))

	_, err := a.Unpack(dest)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 300), got)
}

func TestUnpackDestinationMissing(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	parent := t.TempDir()
	dest := filepath.Join(parent, "missing")

	_, err := a.Unpack(dest)
	require.ErrorIs(t, err, ErrDestinationMissing)

	_, statErr := os.Stat(dest)
	require.ErrorIs(t, statErr, fs.ErrNotExist)
	assert.Empty(t, readTree(t, parent))
}

func TestUnpackDestinationIsFile(t *testing.T) {
	t.Parallel()

	dest := testutil.WriteFile(t, t.TempDir(), "file", []byte("x"))
	_, err := openSample(t).Unpack(dest)
	require.ErrorIs(t, err, ErrDestinationMissing)
}

func TestUnpackDirectoryCreateFailed(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()
	// A file where the models directory should be.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "pl0000"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "pl0000", "models"), nil, 0o600))

	stats, err := a.Unpack(dest)
	require.ErrorIs(t, err, ErrDirectoryCreateFailed)
	assert.Zero(t, stats.Written, "first entry fails, nothing after it runs")

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, "pl0000/models/char/hero.mdl.mod", entryErr.Path)
	assert.NotContains(t, readTree(t, dest), "pl0000/tex/hero_BM.tex")
}

func corruptArchive(t *testing.T) *Archive {
	t.Helper()
	data := testutil.Build(t,
		testutil.Entry{Path: "ok1", TypeTag: testutil.TagTexture, Content: []byte("one"), Compress: true},
		testutil.Entry{Path: "bad", TypeTag: testutil.TagTexture, Payload: []byte{0x78, 0x9C, 0xFF, 0xFF}},
		testutil.Entry{Path: "ok2", TypeTag: testutil.TagTexture, Content: []byte("two"), Compress: true},
	)
	a, err := OpenSource("c", NewBytesSource(data))
	require.NoError(t, err)
	return a
}

func TestUnpackAbortsOnCorruptEntry(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	stats, err := corruptArchive(t).Unpack(dest)
	require.ErrorIs(t, err, ErrDecompression)
	assert.Equal(t, 1, stats.Written)

	files := readTree(t, dest)
	assert.Contains(t, files, "c/ok1.tex")
	assert.NotContains(t, files, "c/bad.tex")
	assert.NotContains(t, files, "c/ok2.tex")
}

func TestUnpackContinueOnError(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	stats, err := corruptArchive(t).Unpack(dest, UnpackWithContinueOnError(true))
	require.ErrorIs(t, err, ErrDecompression)
	assert.Equal(t, 2, stats.Written)
	require.Len(t, stats.Failed, 1)
	assert.Equal(t, "c/bad.tex", stats.Failed[0].Path)

	assert.Equal(t, map[string][]byte{
		"c/ok1.tex": []byte("one"),
		"c/ok2.tex": []byte("two"),
	}, readTree(t, dest))
}

func TestUnpackStrictSize(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{
		Path:                "lie",
		TypeTag:             testutil.TagTexture,
		Content:             []byte("twelve bytes"),
		Compress:            true,
		RawDecompressedSize: SizeBias + 99,
	})
	a, err := OpenSource("s", NewBytesSource(data))
	require.NoError(t, err)

	_, err = a.Unpack(t.TempDir())
	require.NoError(t, err)

	_, err = a.Unpack(t.TempDir(), UnpackWithStrictSize(true))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestUnpackRejectsTraversal(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{Path: `..\..\evil`, TypeTag: testutil.TagTexture, Content: []byte("x"), Compress: true})
	a, err := OpenSource("t", NewBytesSource(data))
	require.NoError(t, err)

	parent := t.TempDir()
	dest := filepath.Join(parent, "out")
	require.NoError(t, os.Mkdir(dest, 0o750))

	_, err = a.Unpack(dest)
	require.ErrorIs(t, err, fs.ErrInvalid)
	assert.Equal(t, map[string][]byte{}, readTree(t, parent))
}

func TestUnpackDirectWrites(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	dest := t.TempDir()
	_, err := a.Unpack(dest, UnpackWithDirectWrites(true))
	require.NoError(t, err)
	assert.Len(t, readTree(t, dest), 3)
}

func TestUnpackProgress(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	_, err := Unpack(openSample(t).Entries(), t.TempDir(), UnpackWithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, StageExtracting, events[0].Stage)
	assert.Equal(t, "pl0000/models/char/hero.mdl", events[0].Path)
	assert.Equal(t, 3, events[2].FilesDone)
	assert.Equal(t, "extracting", StageExtracting.String())
}

func TestUnpackEntryOrder(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t,
		testutil.Entry{Path: "dup", TypeTag: testutil.TagTexture, Content: []byte("first"), Compress: true},
		testutil.Entry{Path: "dup", TypeTag: testutil.TagTexture, Content: []byte("second"), Compress: true},
	)
	a, err := OpenSource("o", NewBytesSource(data))
	require.NoError(t, err)

	dest := t.TempDir()
	_, err = a.Unpack(dest)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dest, "o", "dup.tex"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got, "later records overwrite earlier ones")
}
