package index_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"filescript/internal/domain"
	"filescript/internal/embedding"
	"filescript/internal/index"
)

func testRecords() ([]domain.Record, [][]float64, *embedding.HashEmbedder) {
	embedder := embedding.NewHashEmbedder()
	records := []domain.Record{
		{RelativePath: "a.txt", FileName: "a.txt", Page: 1, Text: "sailing ships on the sea"},
		{RelativePath: "a.txt", FileName: "a.txt", Page: 2, Text: "tax accounting forms"},
		{RelativePath: "docs/b.txt", FileName: "b.txt", Page: 1, Text: "harbor and ships"},
	}
	vectors := make([][]float64, len(records))
	for i, rec := range records {
		vectors[i] = embedder.Embed(embedding.RecordInput(rec.RelativePath, rec.Text))
	}
	return records, vectors, embedder
}

func TestWriteOpenRoundtrip(t *testing.T) {
	root := t.TempDir()
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))

	require.True(t, index.Exists(root))
	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)
	require.Equal(t, root, store.Root())
	require.Len(t, store.Records(), 3)
	require.Equal(t, embedder.Metadata(), store.Metadata())

	require.True(t, store.HasFile("a.txt"))
	require.False(t, store.HasFile("missing.txt"))
	pages := store.FilePages("a.txt")
	require.Len(t, pages, 2)
	require.Equal(t, 1, pages[0].Page)
	require.Equal(t, 2, pages[1].Page)
}

func TestWriteCreatesMarkerAndMetadata(t *testing.T) {
	root := t.TempDir()
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))

	dir := filepath.Join(root, index.StoreDirName)
	marker, err := os.ReadFile(filepath.Join(dir, "pages.faiss"))
	require.NoError(t, err)
	require.Equal(t, []byte{'F', 'D', 'S', 'L', 0x00, 'I', 'D', 'X', 0x01}, marker)
	for _, name := range []string{"records.json", "vectors.json", "metadata.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
}

func TestOpenMissingStore(t *testing.T) {
	root := t.TempDir()
	_, err := index.Open(root, embedding.NewHashEmbedder(), nil)
	require.ErrorIs(t, err, index.ErrNoStore)
}

func TestOpenCorruptedStore(t *testing.T) {
	root := t.TempDir()
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors[:2], embedder.Metadata()))

	_, err := index.Open(root, embedder, nil)
	require.ErrorIs(t, err, index.ErrCorrupted)
}

func TestOpenUpgradesLegacyStore(t *testing.T) {
	root := t.TempDir()
	records, _, embedder := testRecords()
	// A legacy store: vectors produced under an older scheme, no metadata.
	stale := make([][]float64, len(records))
	for i := range stale {
		stale[i] = make([]float64, 4)
	}
	require.NoError(t, index.Write(root, records, stale, domain.Metadata{}))
	require.NoError(t, os.Remove(filepath.Join(root, index.StoreDirName, "metadata.json")))

	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)
	require.Equal(t, embedder.Metadata(), store.Metadata())

	// Upgraded vectors behave like freshly computed ones.
	query := embedder.Embed("ships sailing")
	pages := store.SearchFile("a.txt", query, 1)
	require.Equal(t, []int{1}, pages)

	// Metadata was persisted, so a reopen sees a current store.
	var meta domain.Metadata
	data, err := os.ReadFile(filepath.Join(root, index.StoreDirName, "metadata.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &meta))
	require.Equal(t, embedder.Metadata(), meta)

	again, err := index.Open(root, embedder, nil)
	require.NoError(t, err)
	require.Equal(t, store.Metadata(), again.Metadata())
}

func TestFindRootWalksUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))

	found, ok := index.FindRoot(nested)
	require.True(t, ok)
	require.Equal(t, root, found)

	_, ok = index.FindRoot(t.TempDir())
	require.False(t, ok)
}

func TestDirFiles(t *testing.T) {
	root := t.TempDir()
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))
	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"a.txt", "docs/b.txt"}, store.DirFiles("", true))
	require.Equal(t, []string{"a.txt"}, store.DirFiles("", false))
	require.Equal(t, []string{"docs/b.txt"}, store.DirFiles("docs", true))
	require.Empty(t, store.DirFiles("other", true))

	require.True(t, store.HasDir(""))
	require.True(t, store.HasDir("docs"))
	require.False(t, store.HasDir("other"))
}

func TestSearchDirRanksAcrossFiles(t *testing.T) {
	root := t.TempDir()
	records, vectors, embedder := testRecords()
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))
	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)

	query := embedder.Embed("ships")
	hits := store.SearchDir("", true, query, 2)
	require.Len(t, hits, 2)
	require.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	for _, hit := range hits {
		require.Contains(t, hit.Text, "ships")
	}
}

func TestSearchTiesKeepRecordOrder(t *testing.T) {
	root := t.TempDir()
	embedder := embedding.NewHashEmbedder()
	records := []domain.Record{
		{RelativePath: "dup.txt", FileName: "dup.txt", Page: 1, Text: "identical text"},
		{RelativePath: "dup.txt", FileName: "dup.txt", Page: 2, Text: "identical text"},
		{RelativePath: "dup.txt", FileName: "dup.txt", Page: 3, Text: "identical text"},
	}
	vectors := make([][]float64, len(records))
	for i, rec := range records {
		vectors[i] = embedder.Embed(embedding.RecordInput(rec.RelativePath, rec.Text))
	}
	require.NoError(t, index.Write(root, records, vectors, embedder.Metadata()))
	store, err := index.Open(root, embedder, nil)
	require.NoError(t, err)

	pages := store.SearchFile("dup.txt", embedder.Embed("identical text"), 3)
	require.Equal(t, []int{1, 2, 3}, pages)
}
