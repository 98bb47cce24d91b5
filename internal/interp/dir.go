package interp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filescript/internal/errs"
	"filescript/internal/index"
)

// Dir is the script handle to a directory. Like File it stays legal after
// the physical directory disappears, as long as an index store still lists
// files under it.
type Dir struct {
	interp    *Interpreter
	path      string
	display   string
	recursive bool
}

func (d *Dir) displayPath() string { return d.display }

func (in *Interpreter) newDir(raw string, recursive bool) (*Dir, *errs.RuntimeError) {
	resolved, err := in.resolvePath(raw)
	if err != nil {
		return nil, err
	}
	dir := &Dir{interp: in, path: resolved, display: in.displayPath(resolved), recursive: recursive}
	info, statErr := os.Stat(resolved)
	if statErr == nil {
		if !info.IsDir() {
			return nil, errs.Runtimef("Path is not a directory: %s", dir.display)
		}
		return dir, nil
	}
	if indexed, err := in.dirIndexed(resolved); err != nil {
		return nil, err
	} else if indexed {
		return dir, nil
	}
	return nil, errs.Runtimef("Directory does not exist: %s", dir.display)
}

func (in *Interpreter) dirIndexed(path string) (bool, *errs.RuntimeError) {
	store, root, found, err := in.findStore(path)
	if err != nil || !found {
		return false, err
	}
	return len(store.DirFiles(storeRel(root, path), true)) > 0, nil
}

// dirStore finds the store governing this directory, if any.
func (d *Dir) dirStore() (*index.Store, string, bool, *errs.RuntimeError) {
	return d.interp.findStore(d.path)
}

// filePaths lists the absolute file paths under the directory. When an index
// store governs the directory its records are the authority, even if the
// filesystem has drifted; otherwise the tree is walked physically.
func (d *Dir) filePaths(recursive bool) ([]string, *errs.RuntimeError) {
	store, root, found, err := d.dirStore()
	if err != nil {
		return nil, err
	}
	if found {
		rels := store.DirFiles(storeRel(root, d.path), recursive)
		paths := make([]string, len(rels))
		for i, rel := range rels {
			paths[i] = filepath.Join(root, filepath.FromSlash(rel))
		}
		return paths, nil
	}
	return physicalFilePaths(d.path, recursive)
}

func physicalFilePaths(dir string, recursive bool) ([]string, *errs.RuntimeError) {
	var paths []string
	if recursive {
		walkErr := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if entry.Name() == index.StoreDirName {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.Type().IsRegular() {
				paths = append(paths, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, errs.Runtimef("Cannot list directory: %v", walkErr)
		}
	} else {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			return nil, errs.Runtimef("Cannot list directory: %v", readErr)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return filepath.ToSlash(paths[i]) < filepath.ToSlash(paths[j])
	})
	return paths, nil
}

func (d *Dir) fileValues(recursive bool) ([]Value, *errs.RuntimeError) {
	paths, err := d.filePaths(recursive)
	if err != nil {
		return nil, err
	}
	files := make([]Value, len(paths))
	for i, path := range paths {
		files[i] = &File{path: path, display: d.interp.displayPath(path)}
	}
	return files, nil
}

var dirMethods = map[string]methodImpl{
	"files":           dirFiles,
	"search":          dirSearch,
	"semantic_search": dirSemanticSearch,
	"tree":            dirTree,
}

func dirFiles(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	d := recv.(*Dir)
	bound, err := bindArgs("files", []param{{name: "recursive", def: None{}}}, args, kwargs)
	if err != nil {
		return nil, err
	}
	recursive, err := optBoolArg(bound, "recursive", d.recursive)
	if err != nil {
		return nil, err
	}
	files, err := d.fileValues(recursive)
	if err != nil {
		return nil, err
	}
	return List(files), nil
}

func dirSearch(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	d := recv.(*Dir)
	bound, err := bindArgs("search", []param{
		{name: "pattern"},
		{name: "scope", def: Str("name")},
		{name: "in_content", def: Bool(false)},
		{name: "recursive", def: None{}},
		{name: "ignore_case", def: Bool(false)},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	recursive, err := optBoolArg(bound, "recursive", d.recursive)
	if err != nil {
		return nil, err
	}
	inContent, err := boolArg(bound, "in_content")
	if err != nil {
		return nil, err
	}
	ignoreCase, err := boolArg(bound, "ignore_case")
	if err != nil {
		return nil, err
	}
	scope, ok := bound["scope"].(Str)
	if !ok {
		return nil, errs.NewRuntimeError("scope must be one of: 'name', 'content', 'both'")
	}
	scopeName := string(scope)
	if inContent {
		scopeName = "content"
	}
	if scopeName != "name" && scopeName != "content" && scopeName != "both" {
		return nil, errs.NewRuntimeError("scope must be one of: 'name', 'content', 'both'")
	}
	re, err := compileRegex(bound["pattern"], ignoreCase)
	if err != nil {
		return nil, err
	}
	paths, err := d.filePaths(recursive)
	if err != nil {
		return nil, err
	}
	var matches List
	for _, path := range paths {
		file := &File{path: path, display: in.displayPath(path)}
		rel, relErr := filepath.Rel(d.path, path)
		if relErr != nil {
			rel = path
		}
		nameMatch := re.MatchString(filepath.Base(path)) || re.MatchString(filepath.ToSlash(rel))
		contentMatch := false
		if scopeName == "content" || scopeName == "both" {
			chunks, err := in.fileChunks(file)
			if err != nil {
				return nil, err
			}
			for _, chunk := range chunks {
				if re.MatchString(chunk) {
					contentMatch = true
					break
				}
			}
		}
		switch scopeName {
		case "name":
			if nameMatch {
				matches = append(matches, file)
			}
		case "content":
			if contentMatch {
				matches = append(matches, file)
			}
		case "both":
			if nameMatch || contentMatch {
				matches = append(matches, file)
			}
		}
	}
	return matches, nil
}

func dirSemanticSearch(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	d := recv.(*Dir)
	bound, err := bindArgs("semantic_search", []param{
		{name: "query"},
		{name: "top_k", def: Int(5)},
		{name: "recursive", def: None{}},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	query, topK, err := validateQuery(bound["query"], bound["top_k"])
	if err != nil {
		return nil, err
	}
	recursive, err := optBoolArg(bound, "recursive", d.recursive)
	if err != nil {
		return nil, err
	}
	store, root, found, err := d.dirStore()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missingIndexError(d.display)
	}
	queryVec := in.embedder.Embed(strings.TrimSpace(query))
	hits := store.SearchDir(storeRel(root, d.path), recursive, queryVec, topK)
	out := make(List, len(hits))
	for i, hit := range hits {
		out[i] = Str(fmt.Sprintf("[%s] => [p.%d] %s", hit.FileName, hit.Page, hit.Text))
	}
	return out, nil
}

func dirTree(in *Interpreter, recv Value, args []Value, kwargs map[string]Value) (Value, *errs.RuntimeError) {
	d := recv.(*Dir)
	bound, err := bindArgs("tree", []param{
		{name: "max_depth", def: Int(5)},
		{name: "max_entries", def: Int(500)},
	}, args, kwargs)
	if err != nil {
		return nil, err
	}
	maxDepth, ok := bound["max_depth"].(Int)
	if !ok || maxDepth < 0 {
		return nil, errs.NewRuntimeError("max_depth must be a non-negative integer")
	}
	maxEntries, ok := bound["max_entries"].(Int)
	if !ok || maxEntries < 1 {
		return nil, errs.NewRuntimeError("max_entries must be a positive integer")
	}
	store, root, found, err := d.dirStore()
	if err != nil {
		return nil, err
	}
	if found {
		rels := store.DirFiles(storeRel(root, d.path), true)
		paths := make([]string, len(rels))
		for i, rel := range rels {
			paths[i] = filepath.Join(root, filepath.FromSlash(rel))
		}
		return Str(d.renderTreeFromPaths(paths, int(maxDepth), int(maxEntries))), nil
	}
	return Str(d.renderTreePhysical(int(maxDepth), int(maxEntries))), nil
}

// renderTreePhysical walks the filesystem, directories before files, names
// compared case-insensitively, two-space indent per level.
func (d *Dir) renderTreePhysical(maxDepth, maxEntries int) string {
	lines := []string{d.display + "/"}
	emitted := 1
	truncated := false

	var walk func(current string, depth int) bool
	walk = func(current string, depth int) bool {
		if depth >= maxDepth {
			return true
		}
		entries, err := os.ReadDir(current)
		if err != nil {
			lines = append(lines, strings.Repeat("  ", depth+1)+fmt.Sprintf("[unreadable: %v]", err))
			emitted++
			return emitted < maxEntries
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].IsDir() != entries[j].IsDir() {
				return entries[i].IsDir()
			}
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		})
		for _, entry := range entries {
			if entry.IsDir() && entry.Name() == index.StoreDirName {
				continue
			}
			if emitted >= maxEntries {
				truncated = true
				return false
			}
			label := entry.Name()
			if entry.IsDir() {
				label += "/"
			}
			lines = append(lines, strings.Repeat("  ", depth+1)+label)
			emitted++
			if entry.IsDir() {
				if !walk(filepath.Join(current, entry.Name()), depth+1) {
					return false
				}
			}
		}
		return true
	}

	walk(d.path, 0)
	if truncated {
		lines = append(lines, fmt.Sprintf("... truncated after %d entries", maxEntries))
	}
	return strings.Join(lines, "\n")
}

type treeNode struct {
	dirs  map[string]*treeNode
	files map[string]bool
}

func newTreeNode() *treeNode {
	return &treeNode{dirs: map[string]*treeNode{}, files: map[string]bool{}}
}

// renderTreeFromPaths renders the same layout as the physical walk, but from
// index-backed file paths, so deleted files still show up.
func (d *Dir) renderTreeFromPaths(paths []string, maxDepth, maxEntries int) string {
	root := newTreeNode()
	for _, path := range paths {
		rel, err := filepath.Rel(d.path, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node.dirs[part]
			if !ok {
				child = newTreeNode()
				node.dirs[part] = child
			}
			node = child
		}
		node.files[parts[len(parts)-1]] = true
	}

	lines := []string{d.display + "/"}
	emitted := 1
	truncated := false

	var walk func(node *treeNode, depth int) bool
	walk = func(node *treeNode, depth int) bool {
		if depth >= maxDepth {
			return true
		}
		dirNames := make([]string, 0, len(node.dirs))
		for name := range node.dirs {
			dirNames = append(dirNames, name)
		}
		sort.Slice(dirNames, func(i, j int) bool {
			return strings.ToLower(dirNames[i]) < strings.ToLower(dirNames[j])
		})
		fileNames := make([]string, 0, len(node.files))
		for name := range node.files {
			fileNames = append(fileNames, name)
		}
		sort.Slice(fileNames, func(i, j int) bool {
			return strings.ToLower(fileNames[i]) < strings.ToLower(fileNames[j])
		})

		for _, name := range dirNames {
			if emitted >= maxEntries {
				truncated = true
				return false
			}
			lines = append(lines, strings.Repeat("  ", depth+1)+name+"/")
			emitted++
			if !walk(node.dirs[name], depth+1) {
				return false
			}
		}
		for _, name := range fileNames {
			if emitted >= maxEntries {
				truncated = true
				return false
			}
			lines = append(lines, strings.Repeat("  ", depth+1)+name)
			emitted++
		}
		return true
	}

	walk(root, 0)
	if truncated {
		lines = append(lines, fmt.Sprintf("... truncated after %d entries", maxEntries))
	}
	return strings.Join(lines, "\n")
}
