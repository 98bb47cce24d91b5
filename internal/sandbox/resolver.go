// Package sandbox confines every path the script runtime touches to a single
// root directory. All Directory/File construction and every physical
// filesystem access must go through Resolver.Resolve first.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ViolationError reports a path that canonicalizes outside the sandbox root.
type ViolationError struct {
	Path string
	Root string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("Access denied. '%s' is outside sandbox root '%s'", filepath.ToSlash(e.Path), filepath.ToSlash(e.Root))
}

// Resolver canonicalizes raw script paths against a fixed root.
type Resolver struct {
	root string
}

// New builds a Resolver for root. The root itself is canonicalized once;
// it must exist.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox root: %w", err)
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical sandbox root.
func (r *Resolver) Root() string { return r.root }

// Resolve canonicalizes raw relative to base (an absolute directory),
// resolving ".", ".." and symlinks, and verifies the result is the root or a
// descendant of it. The returned path is absolute and canonical; resolving it
// again is a no-op.
func (r *Resolver) Resolve(raw, base string) (string, error) {
	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(base, candidate)
	}
	candidate = filepath.Clean(candidate)

	canonical, err := canonicalize(candidate)
	if err != nil {
		return "", err
	}
	if !r.Contains(canonical) {
		return "", &ViolationError{Path: canonical, Root: r.root}
	}
	return canonical, nil
}

// Contains reports whether an already-canonical path lies at or under root.
func (r *Resolver) Contains(canonical string) bool {
	if canonical == r.root {
		return true
	}
	return strings.HasPrefix(canonical, r.root+string(filepath.Separator))
}

// canonicalize resolves symlinks for the deepest existing ancestor of path
// and rejoins the non-existing remainder. This keeps containment checks
// honest for paths that only exist inside an index store.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	existing := path
	var tail []string
	for {
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		tail = append([]string{filepath.Base(existing)}, tail...)
		existing = parent
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}
	return filepath.Clean(path), nil
}
