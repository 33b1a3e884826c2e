// Package assets is a small asset server: typed handles, loaders selected by
// file suffix, background loading, dependency tracking and optional hot
// reload. All bookkeeping happens on the game thread inside Update; only
// file reads and Loader.Load run in goroutines.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/milk9111/ebiten-yarn/logging"
)

var (
	ErrNoLoader = errors.New("assets: no loader for path")
	ErrClosed   = errors.New("assets: server closed")
)

type entry struct {
	state LoadState
	value any
	deps  []string
	err   error
	gen   uint64
	// reloading is set while a hot reload is in flight; state stays Loaded
	// and value keeps the previous version until the new one publishes.
	reloading bool
}

type result struct {
	path  string
	gen   uint64
	value any
	deps  []string
	err   error
}

type Server struct {
	fsys    fs.FS
	log     *slog.Logger
	loaders []Loader
	entries map[string]*entry

	ctx     context.Context
	cancel  context.CancelFunc
	results chan result
	pending int

	watcher  *Watcher
	reloaded []string
	closed   bool
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func NewServer(fsys fs.FS, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		fsys:    fsys,
		entries: map[string]*entry{},
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan result, 64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Or(s.log)
	return s
}

// Register adds a loader. Later registrations win ties on equal suffixes.
func (s *Server) Register(l Loader) {
	if s == nil || l == nil {
		return
	}
	s.loaders = append([]Loader{l}, s.loaders...)
}

// Load returns a handle for p and starts loading it if this is the first
// request for that path.
func Load[T any](s *Server, p string) Handle[T] {
	h := NewHandle[T](p)
	if s != nil && h.Valid() {
		s.request(h.path)
	}
	return h
}

// Get returns the loaded value for h.
func Get[T any](s *Server, h Handle[T]) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	e, ok := s.entries[h.path]
	if !ok || e.state != Loaded {
		return zero, false
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// State reports the load state of p.
func (s *Server) State(p string) LoadState {
	if s == nil {
		return NotLoaded
	}
	e, ok := s.entries[CleanPath(p)]
	if !ok {
		return NotLoaded
	}
	return e.state
}

// Err returns the failure recorded for p, if any.
func (s *Server) Err(p string) error {
	if s == nil {
		return nil
	}
	if e, ok := s.entries[CleanPath(p)]; ok {
		return e.err
	}
	return nil
}

// Ready reports whether p and all of its recursive dependencies are loaded.
func (s *Server) Ready(p string) bool {
	if s == nil {
		return false
	}
	return s.ready(CleanPath(p), map[string]bool{})
}

func (s *Server) ready(p string, seen map[string]bool) bool {
	if seen[p] {
		return true
	}
	seen[p] = true
	e, ok := s.entries[p]
	if !ok || e.state != Loaded {
		return false
	}
	for _, d := range e.deps {
		if !s.ready(d, seen) {
			return false
		}
	}
	return true
}

// Reloaded lists the paths whose hot-reloaded value was published during the
// last Update.
func (s *Server) Reloaded() []string {
	if s == nil {
		return nil
	}
	return s.reloaded
}

// Pending returns the number of loads in flight.
func (s *Server) Pending() int {
	if s == nil {
		return 0
	}
	return s.pending
}

// Update publishes finished loads and queues hot reloads. Call it once per
// tick from the game thread.
func (s *Server) Update() {
	if s == nil {
		return
	}
	s.reloaded = s.reloaded[:0]
	s.drainWatcher()
	for {
		select {
		case r := <-s.results:
			s.publish(r)
		default:
			return
		}
	}
}

// Flush blocks until every in-flight load, including dependencies discovered
// along the way, has published.
func (s *Server) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	for s.pending > 0 {
		select {
		case r := <-s.results:
			s.publish(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close cancels in-flight loads and stops the watcher.
func (s *Server) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) request(p string) {
	if _, ok := s.entries[p]; ok {
		return
	}
	e := &entry{state: Loading}
	s.entries[p] = e
	s.start(p, e)
}

func (s *Server) start(p string, e *entry) {
	if s.closed {
		e.state, e.err = Failed, ErrClosed
		return
	}
	loader := matchLoader(s.loaders, p)
	if loader == nil {
		e.state, e.err = Failed, fmt.Errorf("%w: %s", ErrNoLoader, p)
		s.log.Warn("assets: no loader", "path", p)
		return
	}
	e.gen++
	gen := e.gen
	s.pending++
	go func() {
		r := result{path: p, gen: gen}
		lc := &LoadContext{path: p}
		data, err := fs.ReadFile(s.fsys, p)
		if err == nil {
			r.value, err = loader.Load(s.ctx, lc, data)
		}
		r.err = err
		r.deps = lc.Dependencies()
		select {
		case s.results <- r:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) publish(r result) {
	s.pending--
	e, ok := s.entries[r.path]
	if !ok || e.gen != r.gen {
		return
	}
	wasReload := e.reloading
	e.reloading = false
	if r.err != nil {
		if wasReload {
			s.log.Warn("assets: reload failed, keeping previous version", "path", r.path, "err", r.err)
			return
		}
		e.state, e.err = Failed, r.err
		s.log.Warn("assets: load failed", "path", r.path, "err", r.err)
		return
	}
	e.state, e.value, e.deps, e.err = Loaded, r.value, r.deps, nil
	s.log.Debug("assets: loaded", "path", r.path, "deps", len(r.deps))
	if wasReload {
		s.reloaded = append(s.reloaded, r.path)
	}
	for _, d := range r.deps {
		s.request(d)
	}
}

// reload restarts the load of an already requested path.
func (s *Server) reload(p string) {
	e, ok := s.entries[p]
	if !ok {
		return
	}
	if e.state == Loaded {
		e.reloading = true
	} else {
		e.state = Loading
	}
	s.start(p, e)
}
