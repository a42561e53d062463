package arc

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arc/internal/testutil"
	"github.com/meigma/arc/typetag"
)

func sampleEntries() []testutil.Entry {
	return []testutil.Entry{
		{Path: `models\char\hero.mdl`, TypeTag: testutil.TagModel, Content: bytes.Repeat([]byte("mesh"), 64), Compress: true},
		{Path: `tex\hero_BM`, TypeTag: testutil.TagTexture, Content: bytes.Repeat([]byte{0xAB}, 300), Compress: true},
		{Path: `message\intro`, TypeTag: testutil.TagMessage, Content: []byte("hello")},
	}
}

func openSample(t *testing.T, opts ...Option) *Archive {
	t.Helper()
	path := testutil.WriteFile(t, t.TempDir(), "pl0000.arc", testutil.Build(t, sampleEntries()...))
	a, err := Open(path, opts...)
	require.NoError(t, err)
	return a
}

func TestOpen(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	assert.Equal(t, "pl0000", a.Name())
	assert.Equal(t, Header{Magic: "ARC", Version: 7, EntryCount: 3}, a.Header())
	require.Equal(t, int(a.Header().EntryCount), a.Len())

	paths := make([]string, 0, a.Len())
	for i, e := range a.Entries() {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, int64(HeaderSize+i*RecordSize), e.RecordOffset)
		assert.NotContains(t, e.Path, `\`)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"pl0000/models/char/hero.mdl",
		"pl0000/tex/hero_BM",
		"pl0000/message/intro",
	}, paths)
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.arc"))
	require.ErrorIs(t, err, ErrOpenFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir())
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestOpenTruncatedDirectory(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, sampleEntries()...)
	// Claim one more record than the directory holds.
	data[6]++
	_, err := OpenSource("pl0000", NewBytesSource(data[:HeaderSize+3*RecordSize]))
	require.ErrorIs(t, err, ErrTruncatedRecord)
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()

	a, err := OpenSource("empty", NewBytesSource(testutil.Build(t)))
	require.NoError(t, err)
	assert.Zero(t, a.Len())

	root := a.Listing()
	assert.Equal(t, "empty", root.Label)
	assert.Equal(t, KindArchive, root.Kind)
	assert.Empty(t, root.Children)
	assert.Zero(t, root.FileCount)
}

func TestOpenUnknownTag(t *testing.T) {
	t.Parallel()

	entries := append(sampleEntries(), testutil.Entry{Path: "new", TypeTag: 0x0BADF00D, Content: []byte("?")})
	data := testutil.Build(t, entries...)

	t.Run("strict", func(t *testing.T) {
		a, err := OpenSource("pl0000", NewBytesSource(data))
		require.ErrorIs(t, err, ErrUnknownTypeTag)
		assert.Nil(t, a)

		var recErr *RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, 3, recErr.Index)
	})

	t.Run("fallback", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))

		a, err := OpenSource("pl0000", NewBytesSource(data),
			WithUnknownTagFallback("bin"),
			WithLogger(logger))
		require.NoError(t, err)

		e, ok := a.Lookup("pl0000/new")
		require.True(t, ok)
		assert.Equal(t, "bin", e.Extension)
		assert.Equal(t, uint32(0x0BADF00D), e.TypeTag)
		assert.Contains(t, logs.String(), "unknown type tag")
	})

	t.Run("registry", func(t *testing.T) {
		reg := typetag.Default().Merge(typetag.New(map[uint32]string{0x0BADF00D: "food"}))
		a, err := OpenSource("pl0000", NewBytesSource(data), WithRegistry(reg))
		require.NoError(t, err)
		e, ok := a.Lookup("pl0000/new")
		require.True(t, ok)
		assert.Equal(t, "food", e.Extension)
	})
}

func TestOpenMaxFileSize(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{Path: "big", TypeTag: testutil.TagTexture, Payload: make([]byte, 64)})
	_, err := OpenSource("a", NewBytesSource(data), WithMaxFileSize(63))
	require.ErrorIs(t, err, ErrSizeOverflow)

	_, err = OpenSource("a", NewBytesSource(data), WithMaxFileSize(64))
	require.NoError(t, err)
}

func TestOpenProgress(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	openSample(t, WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, StageLoading, ev.Stage)
		assert.Equal(t, i+1, ev.FilesDone)
		assert.Equal(t, 3, ev.FilesTotal)
	}
	assert.Equal(t, "pl0000/message/intro", events[2].Path)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	a := openSample(t)

	e, ok := a.Lookup(`pl0000\models\char\hero.mdl`)
	require.True(t, ok)
	assert.Equal(t, "hero.mdl", e.Name)

	_, ok = a.Lookup("pl0000/models/char")
	assert.False(t, ok)
}

func TestLookupDuplicatePath(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t,
		testutil.Entry{Path: "dup", TypeTag: testutil.TagTexture, Content: []byte("first"), Compress: true},
		testutil.Entry{Path: "dup", TypeTag: testutil.TagTexture, Content: []byte("second"), Compress: true},
	)
	a, err := OpenSource("a", NewBytesSource(data))
	require.NoError(t, err)

	e, ok := a.Lookup("a/dup")
	require.True(t, ok)
	assert.Equal(t, 1, e.Index)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	a := openSample(t)

	got, err := a.ReadFile("pl0000/models/char/hero.mdl")
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("mesh"), 64), got)

	got, err = a.ReadFile("pl0000/message/intro")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = a.ReadFile("pl0000/nope")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadFileCorrupt(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{Path: "bad", TypeTag: testutil.TagTexture, Payload: []byte{0x78, 0x9C, 0xFF, 0xFF, 0xFF}})
	a, err := OpenSource("a", NewBytesSource(data))
	require.NoError(t, err)

	_, err = a.ReadFile("a/bad")
	require.ErrorIs(t, err, ErrDecompression)
	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, "a/bad", entryErr.Path)
}

func TestReadFileDamagedZlibHeader(t *testing.T) {
	t.Parallel()

	payload := testutil.Deflate(t, bytes.Repeat([]byte("payload"), 64))
	payload[0] = 0x03
	data := testutil.Build(t, testutil.Entry{Path: "bad", TypeTag: testutil.TagTexture, Payload: payload})
	a, err := OpenSource("a", NewBytesSource(data))
	require.NoError(t, err)

	_, err = a.ReadFile("a/bad")
	require.ErrorIs(t, err, ErrDecompression)

	stats, err := a.Unpack(t.TempDir(), UnpackWithContinueOnError(true))
	require.ErrorIs(t, err, ErrDecompression)
	require.NotNil(t, stats)
	assert.Zero(t, stats.Written)
	require.Len(t, stats.Failed, 1)
}

func TestOpenEmptyEntryPath(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t,
		testutil.Entry{Path: "", TypeTag: testutil.TagTexture, Content: []byte("orphan")},
		testutil.Entry{Path: `models\hero`, TypeTag: testutil.TagModel, Content: []byte("mesh")},
	)
	_, err := OpenSource("pl", NewBytesSource(data))
	require.ErrorIs(t, err, ErrInvalidPath)
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 0, recErr.Index)
}

func TestReadFileMaxSize(t *testing.T) {
	t.Parallel()

	data := testutil.Build(t, testutil.Entry{Path: "zeros", TypeTag: testutil.TagTexture, Content: make([]byte, 4096), Compress: true})
	a, err := OpenSource("a", NewBytesSource(data), WithMaxFileSize(1024))
	require.NoError(t, err)

	_, err = a.ReadFile("a/zeros")
	require.ErrorIs(t, err, ErrSizeOverflow)
	assert.NotErrorIs(t, err, ErrDecompression)
}

func TestOpenAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	names := []string{"st01.arc", "st02.arc", "st03.arc"}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = testutil.WriteFile(t, dir, name, testutil.Build(t, sampleEntries()[:i+1]...))
	}

	archives, err := OpenAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, archives, 3)
	for i, a := range archives {
		assert.Equal(t, strings.TrimSuffix(names[i], ".arc"), a.Name())
		assert.Equal(t, i+1, a.Len())
	}
}

func TestOpenAllFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.arc", testutil.Build(t, sampleEntries()...))
	bad := testutil.WriteFile(t, dir, "bad.arc", []byte{1, 2, 3})

	_, err := OpenAll(context.Background(), []string{good, bad})
	require.ErrorIs(t, err, ErrTruncatedHeader)
	assert.Contains(t, err.Error(), "bad.arc")
}

func TestOpenAllCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := testutil.WriteFile(t, t.TempDir(), "a.arc", testutil.Build(t, sampleEntries()...))
	_, err := OpenAll(ctx, []string{path})
	require.ErrorIs(t, err, context.Canceled)
}

func TestArchiveConcurrentReads(t *testing.T) {
	t.Parallel()

	a := openSample(t)
	want := bytes.Repeat([]byte{0xAB}, 300)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			got, err := a.ReadFile("pl0000/tex/hero_BM")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	wg.Wait()
}
