package assets

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher reports changed files below a directory tree, debounced per file.
// Event values are paths relative to the watched root, slash-separated.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	accept  func(string) bool
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches root and all of its subdirectories. accept filters
// relative paths; nil accepts everything.
func NewWatcher(root string, accept func(string) bool) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		root:    root,
		watcher: w,
		accept:  accept,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			rel = filepath.ToSlash(rel)
			if w.accept != nil && !w.accept(rel) {
				continue
			}
			now := time.Now()
			if t, ok := last[rel]; ok && now.Sub(t) < watchDebounce {
				continue
			}
			last[rel] = now
			select {
			case w.Events <- rel:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Watch enables hot reload for files under dir, which must be the on-disk
// directory backing the server's fs.FS. Changes are picked up by Update;
// only paths some registered loader accepts are reloaded.
func (s *Server) Watch(dir string) error {
	if s == nil {
		return nil
	}
	w, err := NewWatcher(dir, nil)
	if err != nil {
		return err
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.watcher = w
	return nil
}

func (s *Server) drainWatcher() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case p := <-s.watcher.Events:
			if matchLoader(s.loaders, p) == nil {
				continue
			}
			s.log.Info("assets: change detected", "path", p)
			s.reload(CleanPath(p))
		case err := <-s.watcher.Errors:
			s.log.Warn("assets: watcher error", "err", err)
		default:
			return
		}
	}
}
