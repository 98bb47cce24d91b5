package index_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"filescript/internal/embedding"
	"filescript/internal/extract"
	"filescript/internal/index"
)

func TestPrepareIndexesFolderRecursively(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "b.txt"), []byte("beta text"), 0o644))

	embedder := embedding.NewHashEmbedder()
	builder := index.NewBuilder(extract.New(extract.DefaultTextChunkLines), embedder, nil)
	stats, err := builder.Prepare(root)
	require.NoError(t, err)
	require.Equal(t, 2, stats.IndexedFiles)
	require.Equal(t, 2, stats.IndexedPages)
	require.Equal(t, filepath.Join(root, index.StoreDirName), stats.DBPath)

	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "docs/b.txt"}, store.DirFiles("", true))
}

func TestPrepareSkipsExistingStoreDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))

	embedder := embedding.NewHashEmbedder()
	builder := index.NewBuilder(extract.New(extract.DefaultTextChunkLines), embedder, nil)
	_, err := builder.Prepare(root)
	require.NoError(t, err)

	// A second run must not index the store's own files.
	stats, err := builder.Prepare(root)
	require.NoError(t, err)
	require.Equal(t, 1, stats.IndexedFiles)
}

func TestPrepareRejectsMissingOrNonDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	builder := index.NewBuilder(extract.New(0), embedding.NewHashEmbedder(), nil)

	_, err := builder.Prepare(missing)
	require.ErrorContains(t, err, "folder does not exist")

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = builder.Prepare(file)
	require.ErrorContains(t, err, "path is not a directory")
}

func TestPrepareNormalizesRecordText(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "odd.txt"), []byte("a b\r\nend\n"), 0o644))

	embedder := embedding.NewHashEmbedder()
	builder := index.NewBuilder(extract.New(extract.DefaultTextChunkLines), embedder, nil)
	_, err := builder.Prepare(root)
	require.NoError(t, err)

	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)
	pages := store.FilePages("odd.txt")
	require.Len(t, pages, 1)
	require.Equal(t, "a b\nend", pages[0].Text)
}
