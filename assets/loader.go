package assets

import (
	"context"
	"path"
	"strings"
)

// Loader turns raw file bytes into an asset value. Load runs off the game
// thread and must not touch the ECS world.
type Loader interface {
	// Extensions lists the file suffixes handled, without the leading dot.
	// Multi-part suffixes such as "lines.csv" are allowed.
	Extensions() []string
	Load(ctx context.Context, lc *LoadContext, data []byte) (any, error)
}

// LoadContext is handed to a Loader for a single load.
type LoadContext struct {
	path string
	deps []string
}

// Path returns the cleaned path being loaded.
func (lc *LoadContext) Path() string {
	return lc.path
}

// Dependency records p as a dependency of the asset being loaded. The server
// starts loading it once this load publishes, and Ready only reports true when
// every dependency is loaded too.
func (lc *LoadContext) Dependency(p string) {
	p = CleanPath(p)
	if p == "" || p == lc.path {
		return
	}
	for _, d := range lc.deps {
		if d == p {
			return
		}
	}
	lc.deps = append(lc.deps, p)
}

// Dependencies returns the paths recorded so far.
func (lc *LoadContext) Dependencies() []string {
	return append([]string(nil), lc.deps...)
}

// BytesLoader keeps the raw file contents.
type BytesLoader struct {
	Exts []string
}

func (b BytesLoader) Extensions() []string {
	return b.Exts
}

func (BytesLoader) Load(_ context.Context, _ *LoadContext, data []byte) (any, error) {
	return data, nil
}

// matchLoader picks the loader whose extension is the longest suffix of p.
func matchLoader(loaders []Loader, p string) Loader {
	base := strings.ToLower(path.Base(p))
	var best Loader
	bestLen := 0
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if ext == "" || !strings.HasSuffix(base, "."+ext) {
				continue
			}
			if len(ext) > bestLen {
				best, bestLen = l, len(ext)
			}
		}
	}
	return best
}
