package index

import (
	"path"
	"sort"
	"strings"

	"filescript/internal/domain"
	"filescript/internal/embedding"
)

// HasFile reports whether the store carries records for the given
// slash-separated relative path.
func (s *Store) HasFile(rel string) bool {
	_, ok := s.pages[rel]
	return ok
}

// FilePages returns the file's records ordered by page number.
func (s *Store) FilePages(rel string) []domain.Record {
	return s.pages[rel]
}

// DirFiles returns the relative paths of all indexed files under relDir
// ("" or "." meaning the prepared root), sorted. With recursive false, only
// direct children are returned.
func (s *Store) DirFiles(relDir string, recursive bool) []string {
	relDir = normalizeRelDir(relDir)
	var out []string
	for rel := range s.pages {
		if recursive {
			if relDir != "" && !strings.HasPrefix(rel, relDir+"/") {
				continue
			}
		} else {
			parent := path.Dir(rel)
			if parent == "." {
				parent = ""
			}
			if parent != relDir {
				continue
			}
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}

// HasDir reports whether any indexed file lies under relDir.
func (s *Store) HasDir(relDir string) bool {
	relDir = normalizeRelDir(relDir)
	if relDir == "" {
		return len(s.pages) > 0
	}
	for rel := range s.pages {
		if strings.HasPrefix(rel, relDir+"/") {
			return true
		}
	}
	return false
}

func normalizeRelDir(relDir string) string {
	relDir = strings.Trim(relDir, "/")
	if relDir == "." {
		return ""
	}
	return relDir
}

// SearchFile scores all pages of one file against the query vector and
// returns the top-k page numbers, best first. Ties keep record order.
func (s *Store) SearchFile(rel string, queryVec []float64, topK int) []int {
	hits := s.score(s.positions[rel], queryVec, topK)
	pages := make([]int, 0, len(hits))
	for _, hit := range hits {
		pages = append(pages, hit.Page)
	}
	return pages
}

// SearchDir scores every record under relDir against the query vector and
// returns the top-k hits, best first. Ties keep record order.
func (s *Store) SearchDir(relDir string, recursive bool, queryVec []float64, topK int) []domain.Hit {
	relDir = normalizeRelDir(relDir)
	var candidates []int
	for i, record := range s.records {
		if relDir != "" && !strings.HasPrefix(record.RelativePath, relDir+"/") {
			continue
		}
		if !recursive {
			parent := path.Dir(record.RelativePath)
			if parent == "." {
				parent = ""
			}
			if parent != relDir {
				continue
			}
		}
		candidates = append(candidates, i)
	}
	return s.score(candidates, queryVec, topK)
}

// score ranks the given record indexes by dot product, descending, with a
// stable sort so equal scores keep their original record order.
func (s *Store) score(candidates []int, queryVec []float64, topK int) []domain.Hit {
	hits := make([]domain.Hit, 0, len(candidates))
	for _, idx := range candidates {
		hits = append(hits, domain.Hit{
			Record: s.records[idx],
			Score:  embedding.Dot(queryVec, s.vectors[idx]),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
