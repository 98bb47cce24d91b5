package domain

// Record is one extracted page (or chunk) of a document inside an index
// store. Identity is (RelativePath, Page); pages are 1-based and ordered.
type Record struct {
	RelativePath string `json:"relative_path"`
	FileName     string `json:"file_name"`
	Page         int    `json:"page"`
	Text         string `json:"text"`
}

// Hit is a retrieval result: a record annotated with its similarity score.
type Hit struct {
	Record
	Score float64
}

// Metadata describes how the vectors of an index store were produced. A store
// is compatible only when its metadata matches the engine's current scheme;
// anything else is legacy and must be rebuilt before use.
type Metadata struct {
	SchemeVersion int    `json:"scheme_version"`
	Dimension     int    `json:"dimension"`
	HashFunction  string `json:"hash_function"`
	TokenPattern  string `json:"token_pattern"`
}

// Embedder converts free text into a deterministic numeric vector. The same
// input must yield a bit-identical vector in any process.
type Embedder interface {
	Embed(text string) []float64
	Dimension() int
	Metadata() Metadata
}

// Extractor produces the ordered page texts of one document. Page numbering
// observed by scripts is the 1-based position in the returned slice.
type Extractor interface {
	Pages(path string) ([]string, error)
}

// OutlineEntry is one table-of-contents entry extracted from a document.
// Level is 1-based nesting depth; Page is 0 when unknown.
type OutlineEntry struct {
	Level int
	Title string
	Page  int
}

// Outliner extracts document outline entries, when the format carries them.
type Outliner interface {
	Outline(path string, maxItems int) ([]OutlineEntry, error)
}
