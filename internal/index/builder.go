package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filescript/internal/domain"
	"filescript/internal/embedding"
	"filescript/internal/extract"
)

// PrepareStats summarizes one prepare run.
type PrepareStats struct {
	Root         string
	DBPath       string
	IndexedFiles int
	IndexedPages int
}

// Builder runs the offline prepare pass: it walks a root, extracts every
// file's pages, embeds them, and writes the index store. Extraction is
// parallelized per file; the final store write is serialized.
type Builder struct {
	extractor domain.Extractor
	embedder  domain.Embedder
	logger    *zap.Logger
}

func NewBuilder(extractor domain.Extractor, embedder domain.Embedder, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{extractor: extractor, embedder: embedder, logger: logger}
}

// Prepare indexes root recursively, excluding the reserved store directory,
// and atomically replaces any existing store.
func (b *Builder) Prepare(root string) (*PrepareStats, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("folder does not exist: %s", filepath.ToSlash(abs))
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", filepath.ToSlash(abs))
	}

	paths, err := collectFiles(abs)
	if err != nil {
		return nil, err
	}

	pagesByFile := make([][]string, len(paths))
	var group errgroup.Group
	group.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			pages, err := b.extractor.Pages(path)
			if err != nil {
				return fmt.Errorf("extract %s: %w", filepath.ToSlash(path), err)
			}
			pagesByFile[i] = pages
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var records []domain.Record
	var vectors [][]float64
	indexedPages := 0
	for i, path := range paths {
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		for pageNo, pageText := range pagesByFile[i] {
			cleaned := strings.TrimSpace(extract.Normalize(pageText))
			record := domain.Record{
				RelativePath: rel,
				FileName:     filepath.Base(path),
				Page:         pageNo + 1,
				Text:         cleaned,
			}
			records = append(records, record)
			vectors = append(vectors, b.embedder.Embed(embedding.RecordInput(rel, cleaned)))
			indexedPages++
		}
	}

	if err := Write(abs, records, vectors, b.embedder.Metadata()); err != nil {
		return nil, err
	}
	b.logger.Info("prepared index store",
		zap.String("root", abs),
		zap.Int("files", len(paths)),
		zap.Int("pages", indexedPages),
	)
	return &PrepareStats{
		Root:         abs,
		DBPath:       filepath.Join(abs, StoreDirName),
		IndexedFiles: len(paths),
		IndexedPages: indexedPages,
	}, nil
}

// collectFiles lists every regular file under root in sorted order, skipping
// the reserved store directory.
func collectFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == StoreDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return filepath.ToSlash(paths[i]) < filepath.ToSlash(paths[j])
	})
	return paths, nil
}
