package dialogue

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/ebiten-yarn/ecs"
)

var (
	ErrNoEngine      = errors.New("dialogue: entity has no dialogue engine")
	ErrInvalidChoice = errors.New("dialogue: choice out of range")
)

// SelectOption picks choice index (0-based) on engine e and requests the
// step that continues past it.
func SelectOption(w *ecs.World, e ecs.Entity, index int) error {
	engine, ok := ecs.Get(w, e, DialogueEngineComponent.Kind())
	if !ok {
		return ErrNoEngine
	}
	if index < 0 || index >= engine.NumChoices {
		return fmt.Errorf("%w: %d of %d", ErrInvalidChoice, index, engine.NumChoices)
	}
	if err := engine.Machine.SetSelectedOption(index); err != nil {
		return fmt.Errorf("dialogue: select option %d: %w", index, err)
	}
	engine.NumChoices = 0
	RequestStep(w, e)
	return nil
}

// KeySource reports keys pressed this tick.
type KeySource interface {
	IsKeyJustPressed(key ebiten.Key) bool
}

// EbitenKeys reads the keyboard through inpututil.
type EbitenKeys struct{}

func (EbitenKeys) IsKeyJustPressed(key ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(key)
}

var (
	choiceKeys = []ebiten.Key{
		ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
		ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
	}
	choiceNumpadKeys = []ebiten.Key{
		ebiten.KeyNumpad1, ebiten.KeyNumpad2, ebiten.KeyNumpad3, ebiten.KeyNumpad4, ebiten.KeyNumpad5,
		ebiten.KeyNumpad6, ebiten.KeyNumpad7, ebiten.KeyNumpad8, ebiten.KeyNumpad9,
	}
)

// InputSystem is the built-in keyboard driver: number keys pick a choice
// while one is on screen, space advances otherwise.
type InputSystem struct {
	keys KeySource
	log  *slog.Logger
}

func NewInputSystem(keys KeySource, log *slog.Logger) *InputSystem {
	if keys == nil {
		keys = EbitenKeys{}
	}
	return &InputSystem{keys: keys, log: log}
}

func (s *InputSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, DialogueEngineComponent.Kind(), func(e ecs.Entity, engine *DialogueEngine) {
		if engine.Complete {
			return
		}
		if engine.NumChoices > 0 {
			for i := 0; i < engine.NumChoices && i < len(choiceKeys); i++ {
				if !s.keys.IsKeyJustPressed(choiceKeys[i]) && !s.keys.IsKeyJustPressed(choiceNumpadKeys[i]) {
					continue
				}
				s.log.Info("dialogue: option key pressed", "option", i+1)
				if err := SelectOption(w, e, i); err != nil {
					s.log.Warn("dialogue: select option", "err", err)
				}
				return
			}
			return
		}
		if s.keys.IsKeyJustPressed(ebiten.KeySpace) {
			s.log.Info("dialogue: space pressed, stepping")
			RequestStep(w, e)
		}
	})
}
