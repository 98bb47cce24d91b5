package interp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"filescript/internal/domain"
	"filescript/internal/errs"
	"filescript/internal/extract"
)

// File is the script handle to one document. A File is legal when the path
// exists on disk or when an index store still holds records for it.
type File struct {
	path    string
	display string

	chunks []string
	origin chunkOrigin
}

func (f *File) displayPath() string { return f.display }

func (in *Interpreter) newFile(raw string) (*File, *errs.RuntimeError) {
	resolved, err := in.resolvePath(raw)
	if err != nil {
		return nil, err
	}
	file := &File{path: resolved, display: in.displayPath(resolved)}
	info, statErr := os.Stat(resolved)
	if statErr == nil {
		if info.IsDir() {
			return nil, errs.Runtimef("Path is a directory: %s", file.display)
		}
		return file, nil
	}
	if indexed, err := in.fileIndexed(resolved); err != nil {
		return nil, err
	} else if indexed {
		return file, nil
	}
	return nil, errs.Runtimef("Path not found: %s", file.display)
}

func (in *Interpreter) fileIndexed(path string) (bool, *errs.RuntimeError) {
	store, root, found, err := in.findStore(filepath.Dir(path))
	if err != nil || !found {
		return false, err
	}
	return store.HasFile(storeRel(root, path)), nil
}

// fileChunks loads and caches the page texts of a file. Records from the
// nearest index store take precedence; extraction is the fallback for files
// that were never indexed.
func (in *Interpreter) fileChunks(f *File) ([]string, *errs.RuntimeError) {
	if f.chunks != nil {
		return f.chunks, nil
	}
	store, root, found, err := in.findStore(filepath.Dir(f.path))
	if err != nil {
		return nil, err
	}
	if found {
		if records := store.FilePages(storeRel(root, f.path)); len(records) > 0 {
			texts := make([]string, len(records))
			for i, rec := range records {
				texts[i] = rec.Text
			}
			f.chunks = texts
			f.origin = fromIndex
			in.logger.Debug("loaded file pages",
				zap.String("file", f.display),
				zap.Int("pages", len(f.chunks)),
				zap.Bool("from_index", true))
			return f.chunks, nil
		}
	}
	pages, extractErr := in.extractor.Pages(f.path)
	if extractErr != nil {
		return nil, errs.Runtimef("Failed to read '%s': %v", filepath.Base(f.path), extractErr)
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	f.chunks = pages
	f.origin = fromFilesystem
	in.logger.Debug("loaded file pages",
		zap.String("file", f.display),
		zap.Int("pages", len(f.chunks)),
		zap.Bool("from_index", false))
	return f.chunks, nil
}

var fileMethods = map[string]methodImpl{
	"read":            fileRead,
	"search":          fileSearch,
	"contains":        fileContains,
	"head":            fileHead,
	"tail":            fileTail,
	"snippets":        fileSnippets,
	"semantic_search": fileSemanticSearch,
	"table":           fileTable,
}

func fileRead(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	f := recv.(*File)
	bound, err := bindArgs("read", []param{{name: "pages", def: None{}}}, args, kwargs)
	if err != nil {
		return nil, err
	}
	chunks, err := in.fileChunks(f)
	if err != nil {
		return nil, err
	}
	if _, isNone := bound["pages"].(None); isNone {
		return Str(strings.Join(chunks, "\n\n")), nil
	}
	selected, err := normalizePages(bound["pages"], filepath.Base(f.path), len(chunks))
	if err != nil {
		return nil, err
	}
	out := make(List, len(selected))
	for i, page := range selected {
		out[i] = Str(chunks[page-1])
	}
	return out, nil
}

// normalizePages accepts an int or a list of ints, validates each against the
// 1-based page range, and deduplicates while keeping order.
func normalizePages(pages Value, fileName string, total int) ([]int, *errs.RuntimeError) {
	var values []Value
	switch val := pages.(type) {
	case Int:
		values = []Value{val}
	case List:
		values = val
	default:
		return nil, errs.NewRuntimeError("pages must be an integer or a list of integers")
	}
	var normalized []int
	seen := map[int]bool{}
	for _, raw := range values {
		page, ok := raw.(Int)
		if !ok {
			return nil, errs.NewRuntimeError("pages list must contain only integers")
		}
		n := int(page)
		if n < 1 || n > total {
			return nil, errs.Runtimef("Page %d is out of range for %s (1..%d)", n, fileName, total)
		}
		if !seen[n] {
			seen[n] = true
			normalized = append(normalized, n)
		}
	}
	return normalized, nil
}

func fileSearch(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	pages, err := fileSearchPages(in, recv.(*File), args, kwargs)
	if err != nil {
		return nil, err
	}
	out := make(List, len(pages))
	for i, page := range pages {
		out[i] = Int(page)
	}
	return out, nil
}

func fileContains(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	pages, err := fileSearchPages(in, recv.(*File), args, kwargs)
	if err != nil {
		return nil, err
	}
	return Bool(len(pages) > 0), nil
}

func fileSearchPages(in *Interpreter, f *File, args []Value, kwargs map[string]Value) ([]int, *errs.RuntimeError) {
	bound, err := bindArgs("search", []param{
		{name: "pattern"},
		{name: "ignore_case", def: Bool(false)},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	ignoreCase, err := boolArg(bound, "ignore_case")
	if err != nil {
		return nil, err
	}
	re, err := compileRegex(bound["pattern"], ignoreCase)
	if err != nil {
		return nil, err
	}
	chunks, err := in.fileChunks(f)
	if err != nil {
		return nil, err
	}
	var pages []int
	for i, chunk := range chunks {
		if re.MatchString(chunk) {
			pages = append(pages, i+1)
		}
	}
	return pages, nil
}

func fileHead(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	if _, err := bindArgs("head", nil, args, kwargs); err != nil {
		return nil, err
	}
	chunks, err := in.fileChunks(recv.(*File))
	if err != nil {
		return nil, err
	}
	return Str(chunks[0]), nil
}

func fileTail(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	if _, err := bindArgs("tail", nil, args, kwargs); err != nil {
		return nil, err
	}
	chunks, err := in.fileChunks(recv.(*File))
	if err != nil {
		return nil, err
	}
	return Str(chunks[len(chunks)-1]), nil
}

func fileSnippets(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	f := recv.(*File)
	bound, err := bindArgs("snippets", []param{
		{name: "pattern"},
		{name: "max_results", def: Int(5)},
		{name: "context_chars", def: Int(80)},
		{name: "ignore_case", def: Bool(false)},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	maxResults, ok := bound["max_results"].(Int)
	if !ok || maxResults < 1 {
		return nil, errs.NewRuntimeError("max_results must be a positive integer")
	}
	contextChars, ok := bound["context_chars"].(Int)
	if !ok || contextChars < 0 {
		return nil, errs.NewRuntimeError("context_chars must be a non-negative integer")
	}
	ignoreCase, err := boolArg(bound, "ignore_case")
	if err != nil {
		return nil, err
	}
	re, err := compileRegex(bound["pattern"], ignoreCase)
	if err != nil {
		return nil, err
	}
	chunks, err := in.fileChunks(f)
	if err != nil {
		return nil, err
	}
	var snippets List
	for pageIndex, chunk := range chunks {
		for _, match := range re.FindAllStringIndex(chunk, -1) {
			start := match[0] - int(contextChars)
			if start < 0 {
				start = 0
			}
			end := match[1] + int(contextChars)
			if end > len(chunk) {
				end = len(chunk)
			}
			excerpt := strings.TrimSpace(strings.ReplaceAll(chunk[start:end], "\n", " "))
			snippets = append(snippets, Str(fmt.Sprintf("[page %d] %s", pageIndex+1, excerpt)))
			if len(snippets) >= int(maxResults) {
				return snippets, nil
			}
		}
	}
	return snippets, nil
}

func fileSemanticSearch(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	f := recv.(*File)
	bound, err := bindArgs("semantic_search", []param{
		{name: "query"},
		{name: "top_k", def: Int(5)},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	query, topK, err := validateQuery(bound["query"], bound["top_k"])
	if err != nil {
		return nil, err
	}
	store, root, found, err := in.findStore(filepath.Dir(f.path))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missingIndexError(f.display)
	}
	queryVec := in.embedder.Embed(strings.TrimSpace(query))
	pages := store.SearchFile(storeRel(root, f.path), queryVec, topK)
	out := make(List, len(pages))
	for i, page := range pages {
		out[i] = Int(page)
	}
	return out, nil
}

func fileTable(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	f := recv.(*File)
	bound, err := bindArgs("table", []param{{name: "max_items", def: Int(50)}}, args, kwargs)
	if err != nil {
		return nil, err
	}
	maxItems, ok := bound["max_items"].(Int)
	if !ok || maxItems < 1 {
		return nil, errs.NewRuntimeError("max_items must be a positive integer")
	}

	var entries []domain.OutlineEntry
	if _, statErr := os.Stat(f.path); statErr == nil {
		outline, outlineErr := in.extractor.Outline(f.path, int(maxItems))
		if outlineErr != nil {
			return nil, errs.Runtimef("Failed to read outline of '%s': %v", filepath.Base(f.path), outlineErr)
		}
		entries = outline
	}
	if len(entries) == 0 {
		chunks, err := in.fileChunks(f)
		if err != nil {
			return nil, err
		}
		entries = extract.TOCFromText(chunks, int(maxItems))
	}
	if len(entries) == 0 {
		return Str(fmt.Sprintf("No table of contents detected for %s", f.display)), nil
	}
	return Str(fmt.Sprintf("=== Table of contents for file %s ===\n%s", f.display, formatTOC(entries))), nil
}

func formatTOC(entries []domain.OutlineEntry) string {
	lines := make([]string, len(entries))
	for i, entry := range entries {
		indent := entry.Level - 1
		if indent < 0 {
			indent = 0
		}
		line := strings.Repeat("  ", indent) + entry.Title
		if entry.Page > 0 {
			line += fmt.Sprintf(" (p.%d)", entry.Page)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
