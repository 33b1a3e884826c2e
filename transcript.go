package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/ebiten-yarn/dialogue"
	"github.com/milk9111/ebiten-yarn/ecs"
)

const (
	maxTranscriptLines = 200
	lineHeight         = 18
	margin             = 24
)

// Transcript records what the dialogue said and keeps the choices currently
// on offer. It runs in PostUpdate so it sees every event of the tick, and
// draws the most recent lines as a render system.
type Transcript struct {
	debug   bool
	face    ebtext.Face
	lines   []string
	engine  ecs.Entity
	choices []dialogue.Choice
	// version changes whenever choices does, so the UI knows to rebuild.
	version int
	ended   bool
}

func NewTranscript(debug bool) *Transcript {
	return &Transcript{debug: debug, face: ebtext.NewGoXFace(basicfont.Face7x13)}
}

func (t *Transcript) Update(w *ecs.World) {
	for _, evt := range ecs.Read[dialogue.SayEvent](w) {
		if evt.Line.Character != "" {
			t.add(evt.Line.Character + ": " + evt.Line.Text)
		} else {
			t.add(evt.Line.Text)
		}
		t.setChoices(0, nil)
	}
	for _, evt := range ecs.Read[dialogue.ChoicesEvent](w) {
		for i, c := range evt.Choices {
			t.add(fmt.Sprintf("  %d) %s", i+1, c.Line.Text))
		}
		t.setChoices(evt.Engine, evt.Choices)
	}
	for _, evt := range ecs.Read[dialogue.CommandEvent](w) {
		if t.debug || !evt.Command.Handled {
			t.add(fmt.Sprintf("<<%s>>", strings.Join(append([]string{evt.Command.Name}, evt.Command.Args...), " ")))
		}
	}
	for _, evt := range ecs.Read[dialogue.ScriptEvent](w) {
		t.add(fmt.Sprintf("* %s %s", evt.Name, strings.Join(evt.Args, " ")))
	}
	for range ecs.Read[dialogue.EndConversationEvent](w) {
		t.add("(end of conversation)")
		t.setChoices(0, nil)
		t.ended = true
	}
}

func (t *Transcript) add(line string) {
	t.lines = append(t.lines, line)
	if over := len(t.lines) - maxTranscriptLines; over > 0 {
		t.lines = append(t.lines[:0], t.lines[over:]...)
	}
}

func (t *Transcript) setChoices(engine ecs.Entity, choices []dialogue.Choice) {
	if len(choices) == 0 && len(t.choices) == 0 {
		return
	}
	t.engine = engine
	t.choices = choices
	t.version++
}

// Tail returns up to n of the most recent lines.
func (t *Transcript) Tail(n int) []string {
	if n >= len(t.lines) {
		return t.lines
	}
	return t.lines[len(t.lines)-n:]
}

// Text is the whole transcript, one line per entry.
func (t *Transcript) Text() string {
	return strings.Join(t.lines, "\n")
}

func (t *Transcript) Draw(_ *ecs.World, screen *ebiten.Image) {
	rows := (screen.Bounds().Dy()-2*margin)/lineHeight - 2*len(t.choices)
	if rows < 1 {
		rows = 1
	}
	for i, line := range t.Tail(rows) {
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(margin, float64(margin+i*lineHeight))
		op.ColorScale.ScaleWithColor(color.White)
		ebtext.Draw(screen, line, t.face, op)
	}
}
