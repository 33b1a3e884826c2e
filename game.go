package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/config"
	"github.com/milk9111/ebiten-yarn/dialogue"
	"github.com/milk9111/ebiten-yarn/dialogue/yarnvm"
	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/music"
)

const sampleRate = 44100

type Game struct {
	cfg   config.Config
	log   *slog.Logger
	debug bool

	world      *ecs.World
	server     *assets.Server
	engine     ecs.Entity
	transcript *Transcript
	choices    *ChoiceUI

	clipboardOK bool
	frames      int
}

func NewGame(cfg config.Config, logger *slog.Logger, debug bool) (*Game, error) {
	if cfg.Script == "" {
		return nil, fmt.Errorf("no script configured; set script in the config file or pass -script")
	}

	server := assets.NewServer(os.DirFS(cfg.AssetsDir), assets.WithLogger(logger))
	server.Register(assets.AudioLoader{SampleRate: sampleRate})
	if cfg.HotReload {
		if err := server.Watch(cfg.AssetsDir); err != nil {
			logger.Warn("game: hot reload disabled", "err", err)
		}
	}

	w := ecs.NewWorld()
	g := &Game{
		cfg:        cfg,
		log:        logger,
		debug:      debug,
		world:      w,
		server:     server,
		transcript: NewTranscript(debug),
	}

	installBackground(w)
	music.Install(w)
	w.AddSystem(music.NewSystem(music.AssetSource{Server: server, Context: audio.NewContext(sampleRate)}, logger))

	builder := dialogue.NewPluginBuilder().
		WithMachineFactory(yarnvm.New()).
		WithLocale(cfg.Locale).
		WithLogger(logger).
		WithCommands(music.Commands()...).
		WithCommand("set_background", setBackground).
		WithCommand("echo", func(w *ecs.World, args []string) {
			logger.Info("game: echo", "args", args)
		})
	if cfg.InputHandlers {
		builder = builder.WithInput(nil)
	}
	if err := builder.Build().Install(w, server); err != nil {
		return nil, err
	}
	// Script commands need the loaders Install registers.
	for name, script := range cfg.Commands {
		dialogue.AddCommand(w, name, dialogue.ScriptCommand(server, script, logger))
	}

	w.AddStageSystem(ecs.PostUpdate, g.transcript)
	g.choices = NewChoiceUI(g.selectChoice)
	g.engine = dialogue.StartDialogue(w, cfg.Script, cfg.StartNode)

	if err := clipboard.Init(); err != nil {
		logger.Warn("game: clipboard unavailable", "err", err)
	} else {
		g.clipboardOK = true
	}
	return g, nil
}

func (g *Game) selectChoice(index int) {
	if err := dialogue.SelectOption(g.world, g.transcript.engine, index); err != nil {
		g.log.Warn("game: select choice", "index", index, "err", err)
	}
}

func (g *Game) Update() error {
	g.frames++

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		dialogue.Shutdown(g.world)
		_ = g.server.Close()
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && g.clipboardOK {
		clipboard.Write(clipboard.FmtText, []byte(g.transcript.Text()))
		g.log.Info("game: transcript copied to clipboard")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && g.transcript.ended {
		dialogue.Despawn(g.world, g.engine)
		g.transcript.ended = false
		g.engine = dialogue.StartDialogue(g.world, g.cfg.Script, g.cfg.StartNode)
	}

	g.world.Update()
	g.choices.Sync(g.transcript)
	g.choices.UI.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor(g.world))

	g.world.Draw(screen)
	g.choices.UI.Draw(screen)

	if g.debug {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    Pending assets: %d", g.frames, ebiten.ActualFPS(), g.server.Pending()))
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.cfg.Window.Width), float64(g.cfg.Window.Height)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
