// Package resolver locates script modules on disk. A dotted module name
// maps to either `<name>.ward` or a `<name>/__init__.ward` package, searched
// across an ordered list of directories.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Module and package kinds reported in a ModuleSpec.
const (
	KindModule  = "module"
	KindPackage = "package"
)

// Extension is the script file suffix.
const Extension = ".ward"

// ModuleSpec describes where a resolved module loads from.
type ModuleSpec struct {
	Dotted string
	Kind   string
	Path   string
}

// Resolver resolves dotted module names against its search paths, in order.
type Resolver struct {
	searchPaths []string
}

// New builds a resolver over the given directories. Duplicates are dropped.
func New(paths ...string) *Resolver {
	r := &Resolver{}
	for _, path := range paths {
		r.AddPath(path)
	}
	return r
}

// FromScriptPath builds a resolver rooted at the script's directory, the
// default for running a standalone script.
func FromScriptPath(script string) *Resolver {
	return New(filepath.Dir(script))
}

// AddPath appends a search directory unless it is already present.
func (r *Resolver) AddPath(dir string) {
	resolved, err := filepath.Abs(dir)
	if err != nil {
		resolved = filepath.Clean(dir)
	}
	for _, existing := range r.searchPaths {
		if existing == resolved {
			return
		}
	}
	r.searchPaths = append(r.searchPaths, resolved)
}

// SearchPaths returns a copy of the current search path list.
func (r *Resolver) SearchPaths() []string {
	return append([]string(nil), r.searchPaths...)
}

// SpawnChild derives a resolver that searches the parent's paths plus the
// extras. Imports performed by a loaded module resolve relative to that
// module's own directory first through this mechanism.
func (r *Resolver) SpawnChild(extra ...string) *Resolver {
	child := New(r.searchPaths...)
	for _, dir := range extra {
		child.AddPath(dir)
	}
	return child
}

// Resolve maps a dotted module name to a file. A regular module file wins
// over a package directory at the same position in the search order.
func (r *Resolver) Resolve(parts []string) (*ModuleSpec, error) {
	if len(parts) == 0 {
		return nil, errors.New("resolve: empty module name")
	}
	dotted := strings.Join(parts, ".")
	for _, base := range r.searchPaths {
		modulePath := filepath.Join(append([]string{base}, parts...)...)
		fileCandidate := modulePath + Extension
		if info, err := os.Stat(fileCandidate); err == nil && !info.IsDir() {
			return &ModuleSpec{Dotted: dotted, Kind: KindModule, Path: fileCandidate}, nil
		}
		initCandidate := filepath.Join(modulePath, "__init__"+Extension)
		if info, err := os.Stat(initCandidate); err == nil && !info.IsDir() {
			return &ModuleSpec{Dotted: dotted, Kind: KindPackage, Path: initCandidate}, nil
		}
	}
	return nil, errors.Errorf("module %q not found in search paths %v", dotted, r.searchPaths)
}
