// Package index owns the on-disk index store: chunk records, embedding
// vectors, scheme metadata and the marker file, written by the offline
// prepare pass and read by the script runtime. Readers only ever observe a
// complete store; every mutation is a full-file replacement.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"filescript/internal/domain"
	"filescript/internal/embedding"
)

const (
	// StoreDirName is the reserved subdirectory holding the store. It is
	// never walked during preparation.
	StoreDirName = ".fdsl_faiss"

	recordsFileName  = "records.json"
	vectorsFileName  = "vectors.json"
	metadataFileName = "metadata.json"
	markerFileName   = "pages.faiss"
)

// markerBytes is the opaque binary sentinel asserting "an index exists here".
var markerBytes = []byte{'F', 'D', 'S', 'L', 0x00, 'I', 'D', 'X', 0x01}

var (
	ErrNoStore   = errors.New("no index store")
	ErrCorrupted = errors.New("index store is corrupted")
)

// Store is a loaded, scheme-compatible index for one prepared root.
type Store struct {
	root    string
	dir     string
	meta    domain.Metadata
	records []domain.Record
	vectors [][]float64

	// pages holds each file's records sorted by page number; positions
	// holds record indexes in original record order, for scoring.
	pages     map[string][]domain.Record
	positions map[string][]int
}

// Root returns the prepared root this store describes.
func (s *Store) Root() string { return s.root }

// Records returns all chunk records in stored order.
func (s *Store) Records() []domain.Record { return s.records }

// Metadata returns the scheme metadata the vectors were produced under.
func (s *Store) Metadata() domain.Metadata { return s.meta }

// Exists reports whether root carries an index store.
func Exists(root string) bool {
	info, err := os.Stat(filepath.Join(root, StoreDirName, recordsFileName))
	return err == nil && info.Mode().IsRegular()
}

// FindRoot walks upward from path (inclusive) looking for the nearest
// ancestor directory holding an index store.
func FindRoot(path string) (string, bool) {
	candidate := path
	for {
		if Exists(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", false
		}
		candidate = parent
	}
}

type fileStamp struct {
	mtimeNs int64
	size    int64
}

func stamp(path string) (fileStamp, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, false
	}
	return fileStamp{mtimeNs: info.ModTime().UnixNano(), size: info.Size()}, true
}

type cacheEntry struct {
	store         *Store
	recordsStamp  fileStamp
	metadataStamp fileStamp
}

var (
	cacheMu    sync.RWMutex
	storeCache = map[string]cacheEntry{}
)

// Open loads the store at root, validating it against the embedder's current
// scheme. A legacy store (missing or mismatched metadata) is transparently
// upgraded: vectors are recomputed from stored record text and persisted
// before the store is returned. The upgrade is idempotent.
func Open(root string, embedder domain.Embedder, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, StoreDirName)
	recordsPath := filepath.Join(dir, recordsFileName)
	metadataPath := filepath.Join(dir, metadataFileName)

	recordsStamp, ok := stamp(recordsPath)
	if !ok {
		return nil, fmt.Errorf("%w at %s", ErrNoStore, root)
	}
	metadataStamp, _ := stamp(metadataPath)

	cacheMu.RLock()
	entry, cached := storeCache[dir]
	cacheMu.RUnlock()
	if cached && entry.recordsStamp == recordsStamp && entry.metadataStamp == metadataStamp {
		return entry.store, nil
	}

	var records []domain.Record
	if err := readJSON(recordsPath, &records); err != nil {
		return nil, fmt.Errorf("%w: records: %v", ErrCorrupted, err)
	}
	var vectors [][]float64
	if err := readJSON(filepath.Join(dir, vectorsFileName), &vectors); err != nil {
		return nil, fmt.Errorf("%w: vectors: %v", ErrCorrupted, err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %d records but %d vectors", ErrCorrupted, len(records), len(vectors))
	}

	var meta domain.Metadata
	if _, err := os.Stat(metadataPath); err == nil {
		if err := readJSON(metadataPath, &meta); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupted, err)
		}
	}

	current := embedder.Metadata()
	if meta != current {
		logger.Info("legacy index store, recomputing vectors",
			zap.String("root", root),
			zap.Int("stored_scheme", meta.SchemeVersion),
			zap.Int("current_scheme", current.SchemeVersion),
		)
		vectors = make([][]float64, len(records))
		for i, record := range records {
			vectors[i] = embedder.Embed(embedding.RecordInput(record.RelativePath, record.Text))
		}
		meta = current
		if err := writeVectors(dir, vectors, meta); err != nil {
			return nil, fmt.Errorf("index upgrade failed: %w", err)
		}
		metadataStamp, _ = stamp(metadataPath)
	}

	store := &Store{
		root:    root,
		dir:     dir,
		meta:    meta,
		records: records,
		vectors: vectors,
	}
	store.buildLookups()

	cacheMu.Lock()
	storeCache[dir] = cacheEntry{store: store, recordsStamp: recordsStamp, metadataStamp: metadataStamp}
	cacheMu.Unlock()
	return store, nil
}

func (s *Store) buildLookups() {
	s.pages = make(map[string][]domain.Record)
	s.positions = make(map[string][]int)
	for i, record := range s.records {
		s.pages[record.RelativePath] = append(s.pages[record.RelativePath], record)
		s.positions[record.RelativePath] = append(s.positions[record.RelativePath], i)
	}
	for rel := range s.pages {
		pages := s.pages[rel]
		sort.SliceStable(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	}
}

// Write persists a complete store for root. Each file is replaced atomically
// (temp file + rename), the marker last, so a reader never observes a
// partially written store.
func Write(root string, records []domain.Record, vectors [][]float64, meta domain.Metadata) error {
	dir := filepath.Join(root, StoreDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSONAtomic(filepath.Join(dir, recordsFileName), records); err != nil {
		return err
	}
	if err := writeVectors(dir, vectors, meta); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, markerFileName), markerBytes)
}

func writeVectors(dir string, vectors [][]float64, meta domain.Metadata) error {
	if err := writeJSONAtomic(filepath.Join(dir, vectorsFileName), vectors); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, metadataFileName), meta)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func writeJSONAtomic(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
