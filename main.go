package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/ebiten-yarn/config"
	"github.com/milk9111/ebiten-yarn/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	script := flag.String("script", "", "compiled .yarnc to run, relative to the assets dir")
	start := flag.String("start", "", "node to start from")
	debug := flag.Bool("debug", false, "enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *script != "" {
		cfg.Script = *script
	}
	if *start != "" {
		cfg.StartNode = *start
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	game, err := NewGame(cfg, logger, *debug)
	if err != nil {
		log.Fatal(err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
