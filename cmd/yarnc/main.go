// Command yarnc compiles .yarn dialogue into the files the dialogue plugin
// loads: story.yarnc, story.lines.csv and story.metadata.csv.
//
//	yarnc [-ysc ./ysc] [-o dir] [-watch] story.yarn...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/logging"
)

func main() {
	ysc := flag.String("ysc", "./ysc", "path to the Yarn Spinner console compiler")
	outDir := flag.String("o", "", "output directory (defaults to each source's directory)")
	watch := flag.Bool("watch", false, "recompile when a source file changes")
	jobs := flag.Int("j", 4, "maximum concurrent compiles")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.yarn...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	srcs := flag.Args()
	if len(srcs) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := logging.New(logging.ParseLevel(*level))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Sources are grouped by output directory so -o can be left empty.
	byDir := map[string][]string{}
	for _, src := range srcs {
		dir := *outDir
		if dir == "" {
			dir = filepath.Dir(src)
		}
		byDir[dir] = append(byDir[dir], src)
	}
	compilers := map[string]*Compiler{}
	for dir := range byDir {
		compilers[dir] = &Compiler{YSC: *ysc, OutDir: dir, Jobs: *jobs, Log: logger}
	}

	failed := false
	for dir, group := range byDir {
		if err := compilers[dir].CompileAll(ctx, group); err != nil {
			logger.Error("yarnc: build failed", "err", err)
			failed = true
		}
	}
	if !*watch {
		if failed {
			os.Exit(1)
		}
		return
	}

	if err := watchSources(ctx, srcs, func(src string) *Compiler {
		dir := *outDir
		if dir == "" {
			dir = filepath.Dir(src)
		}
		return compilers[dir]
	}); err != nil {
		log.Fatal(err)
	}
}

// watchSources recompiles a source each time it changes until ctx is done.
func watchSources(ctx context.Context, srcs []string, compilerFor func(string) *Compiler) error {
	wanted := map[string]map[string]string{}
	for _, src := range srcs {
		dir := filepath.Dir(src)
		if wanted[dir] == nil {
			wanted[dir] = map[string]string{}
		}
		wanted[dir][filepath.Base(src)] = src
	}

	events := make(chan string, 16)
	for dir, files := range wanted {
		w, err := assets.NewWatcher(dir, func(rel string) bool {
			_, ok := files[rel]
			return ok && strings.HasSuffix(rel, ".yarn")
		})
		if err != nil {
			return fmt.Errorf("yarnc: watch %s: %w", dir, err)
		}
		defer w.Close()
		go func() {
			for {
				select {
				case rel := <-w.Events:
					events <- files[rel]
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case src := <-events:
			c := compilerFor(src)
			if err := c.Compile(ctx, src); err != nil {
				c.Log.Error("yarnc: rebuild failed", "src", src, "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
