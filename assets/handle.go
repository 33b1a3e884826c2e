package assets

import (
	"path"
	"path/filepath"
	"strings"
)

// LoadState tracks a single asset path through the server.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is a typed reference to an asset path. Handles are cheap values;
// the asset itself lives in the Server.
type Handle[T any] struct {
	path string
}

func NewHandle[T any](p string) Handle[T] {
	return Handle[T]{path: CleanPath(p)}
}

func (h Handle[T]) Path() string {
	return h.path
}

func (h Handle[T]) Valid() bool {
	return h.path != ""
}

// CleanPath normalises an asset path to the slash-separated form io/fs
// expects.
func CleanPath(p string) string {
	if p == "" {
		return ""
	}
	s := path.Clean(filepath.ToSlash(p))
	s = strings.TrimPrefix(s, "./")
	if s == "." {
		return ""
	}
	return s
}
