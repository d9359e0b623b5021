package provider

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

const filterCacheSize = 512

// HeaderFilter decides whether a cursor's file belongs to the API surface.
// Patterns are globs matched against the slash-separated path; patterns
// without a slash are also matched against the base name. Cursors with no
// file (builtins) never match, and an empty filter matches nothing.
type HeaderFilter struct {
	patterns []string
	globs    []glob.Glob
	cache    *lru.Cache[string, bool]
}

// NewHeaderFilter compiles the given glob patterns.
func NewHeaderFilter(patterns []string) (*HeaderFilter, error) {
	f := &HeaderFilter{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("api header pattern %q: %w", p, err)
		}
		f.globs = append(f.globs, g)
	}
	cache, err := lru.New[string, bool](filterCacheSize)
	if err != nil {
		return nil, err
	}
	f.cache = cache
	return f, nil
}

// Patterns returns the configured patterns.
func (f *HeaderFilter) Patterns() []string {
	return f.patterns
}

// Match reports whether file is an API header.
func (f *HeaderFilter) Match(file string) bool {
	if file == "" || len(f.globs) == 0 {
		return false
	}
	if v, ok := f.cache.Get(file); ok {
		return v
	}
	matched := f.match(filepath.ToSlash(file))
	f.cache.Add(file, matched)
	return matched
}

func (f *HeaderFilter) match(file string) bool {
	base := path.Base(file)
	for i, g := range f.globs {
		if g.Match(file) {
			return true
		}
		if !strings.Contains(f.patterns[i], "/") && g.Match(base) {
			return true
		}
	}
	return false
}
