package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"filescript/internal/domain"
)

// Outline extracts structural table-of-contents entries for formats that
// carry them. It returns nil (not an error) for formats without structure;
// callers fall back to the text heuristics in TOCFromText.
func (s *Service) Outline(path string, maxItems int) ([]domain.OutlineEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return docxOutline(path, maxItems)
	case ".pptx":
		return pptxOutline(path, maxItems)
	case ".md", ".markdown":
		return markdownOutline(path, maxItems)
	default:
		return nil, nil
	}
}

var (
	numberedDottedRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+?)\.{2,}\s*(\d+)$`)
	numberedPlainRe  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+?)\s+(\d+)$`)
	titledDottedRe   = regexp.MustCompile(`^(.+?)\.{2,}\s*(\d+)$`)
)

// TOCFromText detects table-of-contents lines ("1.2 Title .... 34") in the
// leading pages of a document.
func TOCFromText(pages []string, maxItems int) []domain.OutlineEntry {
	scan := pages
	if len(scan) > 8 {
		scan = scan[:8]
	}
	var entries []domain.OutlineEntry
	seen := make(map[domain.OutlineEntry]struct{})
	for _, page := range scan {
		for _, rawLine := range strings.Split(page, "\n") {
			line := strings.TrimSpace(rawLine)
			if len(line) < 8 {
				continue
			}

			entry := domain.OutlineEntry{Level: 1}
			match := numberedDottedRe.FindStringSubmatch(line)
			if match == nil {
				match = numberedPlainRe.FindStringSubmatch(line)
			}
			if match != nil {
				section := strings.TrimSpace(match[1])
				body := strings.TrimSpace(match[2])
				entry.Title = strings.TrimSpace(section + " " + body)
				entry.Page, _ = strconv.Atoi(match[3])
				entry.Level = strings.Count(section, ".") + 1
			} else if titled := titledDottedRe.FindStringSubmatch(line); titled != nil {
				entry.Title = strings.TrimSpace(titled[1])
				entry.Page, _ = strconv.Atoi(titled[2])
			}

			if entry.Title == "" {
				continue
			}
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			entries = append(entries, entry)
			if len(entries) >= maxItems {
				return entries
			}
		}
	}
	return entries
}
