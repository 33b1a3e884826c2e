package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/ebiten-yarn/logging"
)

type textLoader struct{}

func (textLoader) Extensions() []string { return []string{"txt"} }

func (textLoader) Load(_ context.Context, lc *LoadContext, data []byte) (any, error) {
	s := string(data)
	if strings.HasPrefix(s, "fail") {
		return nil, errors.New("boom")
	}
	// "dep:<path>" lines declare dependencies.
	for _, line := range strings.Split(s, "\n") {
		if dep, ok := strings.CutPrefix(line, "dep:"); ok {
			lc.Dependency(dep)
		}
	}
	return s, nil
}

type specialLoader struct{}

func (specialLoader) Extensions() []string { return []string{"special.txt"} }

func (specialLoader) Load(_ context.Context, _ *LoadContext, data []byte) (any, error) {
	return len(data), nil
}

func newTestServer(t *testing.T, files fstest.MapFS) *Server {
	t.Helper()
	s := NewServer(files, WithLogger(logging.Discard()))
	s.Register(textLoader{})
	s.Register(specialLoader{})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func flush(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestLoadAndGet(t *testing.T) {
	s := newTestServer(t, fstest.MapFS{
		"a.txt": {Data: []byte("hello")},
	})

	h := Load[string](s, "./a.txt")
	assert.Equal(t, "a.txt", h.Path())
	assert.Equal(t, Loading, s.State("a.txt"))

	_, ok := Get(s, h)
	assert.False(t, ok)

	flush(t, s)
	v, ok := Get(s, h)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.True(t, s.Ready("a.txt"))

	// A second request for the same path does not start another load.
	Load[string](s, "a.txt")
	assert.Equal(t, 0, s.Pending())
}

func TestLongestSuffixWins(t *testing.T) {
	s := newTestServer(t, fstest.MapFS{
		"x.special.txt": {Data: []byte("12345")},
	})
	h := Load[int](s, "x.special.txt")
	flush(t, s)
	v, ok := Get(s, h)
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestDependenciesGateReadiness(t *testing.T) {
	s := newTestServer(t, fstest.MapFS{
		"root.txt": {Data: []byte("dep:child.txt\ndep:root.txt")},
		"child.txt": {Data: []byte("dep:leaf.txt")},
		"leaf.txt":  {Data: []byte("leaf")},
	})

	Load[string](s, "root.txt")
	for i := 0; i < 100 && !s.Ready("root.txt"); i++ {
		flush(t, s)
	}
	assert.True(t, s.Ready("root.txt"))
	assert.Equal(t, Loaded, s.State("leaf.txt"))
}

func TestFailedDependencyIsNeverReady(t *testing.T) {
	s := newTestServer(t, fstest.MapFS{
		"root.txt": {Data: []byte("dep:missing.txt")},
	})
	Load[string](s, "root.txt")
	flush(t, s)
	flush(t, s)

	assert.Equal(t, Loaded, s.State("root.txt"))
	assert.Equal(t, Failed, s.State("missing.txt"))
	assert.Error(t, s.Err("missing.txt"))
	assert.False(t, s.Ready("root.txt"))
}

func TestLoaderErrorsAndUnknownSuffix(t *testing.T) {
	s := newTestServer(t, fstest.MapFS{
		"bad.txt": {Data: []byte("fail")},
		"a.bin":   {Data: []byte{1}},
	})

	Load[string](s, "bad.txt")
	Load[[]byte](s, "a.bin")
	flush(t, s)

	assert.Equal(t, Failed, s.State("bad.txt"))
	assert.Equal(t, Failed, s.State("a.bin"))
	assert.ErrorIs(t, s.Err("a.bin"), ErrNoLoader)
}

func TestReloadKeepsPreviousValueUntilPublished(t *testing.T) {
	files := fstest.MapFS{"a.txt": {Data: []byte("v1")}}
	s := newTestServer(t, files)
	h := Load[string](s, "a.txt")
	flush(t, s)

	files["a.txt"] = &fstest.MapFile{Data: []byte("v2")}
	s.reload("a.txt")

	v, ok := Get(s, h)
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	flush(t, s)
	v, _ = Get(s, h)
	assert.Equal(t, "v2", v)
	assert.Equal(t, []string{"a.txt"}, s.Reloaded())
}

func TestWatchReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) {
		t.Helper()
		tmp := filepath.Join(dir, name+".tmp")
		require.NoError(t, os.WriteFile(tmp, []byte(data), 0o644))
		require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
	}
	write("a.txt", "v1")

	s := NewServer(os.DirFS(dir), WithLogger(logging.Discard()))
	s.Register(textLoader{})
	t.Cleanup(func() { _ = s.Close() })

	h := Load[string](s, "a.txt")
	flush(t, s)
	require.NoError(t, s.Watch(dir))
	// Loaders may still be registered once the watcher is running.
	s.Register(specialLoader{})

	write("a.txt", "v2")

	deadline := time.Now().Add(5 * time.Second)
	for {
		s.Update()
		if v, _ := Get(s, h); v == "v2" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change to a.txt was never published")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, s.Ready("a.txt"))
	assert.Equal(t, NotLoaded, s.State("a.txt.tmp"))
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":               "",
		".":              "",
		"./a/b.yarnc":    "a/b.yarnc",
		"a//b/../c.txt":  "a/c.txt",
		"dialogue/x.csv": "dialogue/x.csv",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanPath(in), in)
	}
}
