package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrModuleNotFound is returned by Import for paths with no binding.
var ErrModuleNotFound = errors.New("module not found")

// Loader produces the value bound to a module path. It runs at most once per
// binding; its value or error is memoized.
type Loader func() (any, error)

type binding struct {
	once  sync.Once
	load  Loader
	value any
	err   error
}

func (b *binding) get(path string) (any, error) {
	b.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				b.err = fmt.Errorf("loading %s: panic: %v", path, r)
			}
		}()
		b.value, b.err = b.load()
	})
	return b.value, b.err
}

// Registry is an explicit module table: named, lazily loaded bindings plus
// an ordered search path. Additions are register-if-absent; nothing is ever
// replaced or removed. A Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	modules    map[string]*binding
	searchPath []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*binding)}
}

// Register binds load under path unless path is already bound. It reports
// whether the binding was added.
func (r *Registry) Register(path string, load Loader) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[path]; exists {
		return false
	}
	r.modules[path] = &binding{load: load}
	return true
}

// RegisterValue binds an already loaded value under path unless path is
// already bound.
func (r *Registry) RegisterValue(path string, v any) bool {
	return r.Register(path, func() (any, error) { return v, nil })
}

// Has reports whether path is bound.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[path]
	return ok
}

// Import loads the value bound under path.
func (r *Registry) Import(path string) (any, error) {
	r.mu.RLock()
	b, ok := r.modules[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}
	return b.get(path)
}

// Walk returns the sorted paths equal to root or nested under "root/".
func (r *Registry) Walk(root string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var paths []string
	for p := range r.modules {
		if p == root || strings.HasPrefix(p, root+"/") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Alias re-registers every module under from at the same relative path under
// to. Modules that fail to load are skipped. It returns the number of
// aliases added.
func (r *Registry) Alias(from, to string) int {
	added := 0
	for _, p := range r.Walk(from) {
		v, err := r.Import(p)
		if err != nil {
			continue
		}
		if r.RegisterValue(to+strings.TrimPrefix(p, from), v) {
			added++
		}
	}
	return added
}

// AddSearchPath prepends dir to the search path unless it is already present.
// It reports whether dir was added.
func (r *Registry) AddSearchPath(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.searchPath {
		if d == dir {
			return false
		}
	}
	r.searchPath = append([]string{dir}, r.searchPath...)
	return true
}

// SearchPath returns a copy of the search path, most recently added first.
func (r *Registry) SearchPath() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.searchPath...)
}

// Len returns the number of bound paths.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
