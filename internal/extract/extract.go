// Package extract implements the extraction contract: it turns a document
// into an ordered sequence of page texts, and optionally an outline. Each
// format has an ordered list of strategies; the first one to succeed wins.
// Container formats (DOCX, PPTX) are read through a minimal parser over the
// archive's internal markup. Plain and unrecognized files are read as UTF-8
// text and chunked by a fixed line count.
package extract

import (
	"path/filepath"
	"strings"
)

// DefaultTextChunkLines is the page size for plain-text chunking.
const DefaultTextChunkLines = 80

type strategy func(path string) ([]string, error)

// Service dispatches extraction by file extension.
type Service struct {
	textChunkLines int
}

func New(textChunkLines int) *Service {
	if textChunkLines <= 0 {
		textChunkLines = DefaultTextChunkLines
	}
	return &Service{textChunkLines: textChunkLines}
}

// Pages returns the ordered page texts of the document at path. The result
// always has at least one page.
func (s *Service) Pages(path string) ([]string, error) {
	var lastErr error
	for _, extractPages := range s.strategiesFor(path) {
		pages, err := extractPages(path)
		if err != nil {
			lastErr = err
			continue
		}
		if len(pages) == 0 {
			pages = []string{""}
		}
		return pages, nil
	}
	return nil, lastErr
}

func (s *Service) strategiesFor(path string) []strategy {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return []strategy{docxArchivePages, s.textPages}
	case ".pptx":
		return []strategy{pptxArchivePages, s.textPages}
	default:
		return []strategy{s.textPages}
	}
}
