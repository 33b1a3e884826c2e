package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/milk9111/ebiten-yarn/logging"
)

// runFunc runs an external command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Compiler drives the Yarn Spinner console compiler (ysc) and renames its
// table outputs so every asset kind has a distinct suffix:
//
//	story-Lines.csv    -> story.lines.csv
//	story-Metadata.csv -> story.metadata.csv
type Compiler struct {
	YSC    string
	OutDir string
	// Jobs bounds concurrent ysc processes; 0 means unbounded.
	Jobs int
	Log  *slog.Logger
	run  runFunc
}

// tableRenames lists the ysc output suffixes and the names they are moved to.
var tableRenames = []struct{ from, to string }{
	{"-Lines.csv", ".lines.csv"},
	{"-Metadata.csv", ".metadata.csv"},
}

func stem(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Compile compiles a single .yarn file into OutDir.
func (c *Compiler) Compile(ctx context.Context, src string) error {
	run := c.run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, c.YSC, "compile", "-o", c.OutDir, src)
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("yarnc: compile %s: %w\n%s", src, err, strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("yarnc: compile %s: %w", src, err)
	}
	if err := renameTables(c.OutDir, stem(src)); err != nil {
		return err
	}
	logging.Or(c.Log).Info("yarnc: compiled", "src", src, "out", filepath.Join(c.OutDir, stem(src)+".yarnc"))
	return nil
}

func renameTables(dir, name string) error {
	var errs []error
	for _, r := range tableRenames {
		from := filepath.Join(dir, name+r.from)
		to := filepath.Join(dir, name+r.to)
		if err := os.Rename(from, to); err != nil {
			errs = append(errs, fmt.Errorf("yarnc: rename %s: %w", from, err))
		}
	}
	return errors.Join(errs...)
}

// CompileAll compiles srcs concurrently and returns the first failure.
func (c *Compiler) CompileAll(ctx context.Context, srcs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	if c.Jobs > 0 {
		g.SetLimit(c.Jobs)
	}
	for _, src := range srcs {
		g.Go(func() error {
			return c.Compile(ctx, src)
		})
	}
	return g.Wait()
}
