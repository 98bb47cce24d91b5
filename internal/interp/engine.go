package interp

import (
	"errors"
	"path/filepath"
	"strings"

	"filescript/internal/errs"
	"filescript/internal/index"
	"filescript/internal/sandbox"
)

// chunkOrigin tags where a file's page texts came from. Index records win
// over a fresh extraction so that scripted reads agree with retrieval.
type chunkOrigin int

const (
	fromIndex chunkOrigin = iota + 1
	fromFilesystem
)

// resolvePath canonicalizes a script-supplied path against the working
// directory and enforces sandbox containment.
func (in *Interpreter) resolvePath(raw string) (string, *errs.RuntimeError) {
	resolved, err := in.resolver.Resolve(raw, in.cwd)
	if err != nil {
		var violation *sandbox.ViolationError
		if errors.As(err, &violation) {
			return "", errs.NewRuntimeError(violation.Error())
		}
		return "", errs.Runtimef("Cannot resolve path '%s': %v", raw, err)
	}
	return resolved, nil
}

// displayPath is the user-facing form of an absolute path: relative to the
// working directory, forward slashes.
func (in *Interpreter) displayPath(abs string) string {
	rel, err := filepath.Rel(in.cwd, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// findStore walks from path upward to the nearest directory holding an index
// store. The walk never leaves the sandbox root.
func (in *Interpreter) findStore(path string) (*index.Store, string, bool, *errs.RuntimeError) {
	dir := path
	for in.resolver.Contains(dir) {
		if index.Exists(dir) {
			store, err := index.Open(dir, in.embedder, in.logger)
			if err != nil {
				return nil, "", false, errs.Runtimef("Cannot open semantic index at %s: %v", in.displayPath(dir), err)
			}
			return store, dir, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, "", false, nil
}

// storeRel converts an absolute path to the slash-separated key an index
// store uses for its records.
func storeRel(storeRoot, abs string) string {
	rel, err := filepath.Rel(storeRoot, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func missingIndexError(display string) *errs.RuntimeError {
	return errs.Runtimef("No semantic index found for %s. Run 'filescript prepare <folder>' first.", display)
}

// validateQuery enforces the shared semantic_search argument contract.
func validateQuery(query Value, topK Value) (string, int, *errs.RuntimeError) {
	text, ok := query.(Str)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return "", 0, errs.NewRuntimeError("query must be a non-empty string")
	}
	k := 5
	if topK != nil {
		n, ok := topK.(Int)
		if !ok || n < 1 {
			return "", 0, errs.NewRuntimeError("top_k must be a positive integer")
		}
		k = int(n)
	}
	return string(text), k, nil
}
