package main

import (
	"image/color"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/ecs/component"
)

var defaultBackground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x24, A: 0xff}

// Background is the clear colour, stored on a singleton entity so yarn
// commands can change it.
type Background struct {
	Color color.RGBA
}

var BackgroundComponent = component.NewComponent[Background]()

func installBackground(w *ecs.World) {
	if _, ok := ecs.First(w, BackgroundComponent.Kind()); ok {
		return
	}
	ent := ecs.CreateEntity(w)
	_ = ecs.Add(w, ent, BackgroundComponent.Kind(), &Background{Color: defaultBackground})
}

func backgroundColor(w *ecs.World) color.RGBA {
	ent, ok := ecs.First(w, BackgroundComponent.Kind())
	if !ok {
		return defaultBackground
	}
	bg, _ := ecs.Get(w, ent, BackgroundComponent.Kind())
	return bg.Color
}

// setBackground handles <<set_background name>> where name is an SVG colour
// keyword such as "midnightblue". Unknown names are ignored.
func setBackground(w *ecs.World, args []string) {
	if len(args) == 0 {
		return
	}
	c, ok := colornames.Map[strings.ToLower(args[0])]
	if !ok {
		return
	}
	ent, ok := ecs.First(w, BackgroundComponent.Kind())
	if !ok {
		return
	}
	if bg, ok := ecs.Get(w, ent, BackgroundComponent.Kind()); ok {
		bg.Color = c
	}
}
