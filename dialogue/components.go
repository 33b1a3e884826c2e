package dialogue

import (
	"github.com/google/uuid"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/ecs/component"
)

// YarnData asks the load system to start a dialogue on its entity. The
// string and metadata tables must sit next to the program:
//
//	story.yarnc
//	story.lines.csv
//	story.metadata.csv
//
// Once everything is loaded the component is replaced by a DialogueEngine.
type YarnData struct {
	// Path of the .yarnc file relative to the asset root.
	Path string
	// StartNode defaults to "Start".
	StartNode string
}

var YarnDataComponent = component.NewComponent[YarnData]()

// DialogueEngine is a running dialogue.
type DialogueEngine struct {
	ID uuid.UUID
	// Name is the program path the engine was loaded from.
	Name    string
	Machine Machine

	// NumChoices is the size of the option set on screen, or 0.
	NumChoices int
	Complete   bool
	// Node is the node currently executing, as last reported by the VM.
	Node string

	Program       assets.Handle[*Program]
	StringTable   assets.Handle[*StringTable]
	MetadataTable assets.Handle[*MetadataTable]
}

var DialogueEngineComponent = component.NewComponent[DialogueEngine]()

// StepRequest is a one-shot request to advance dialogue. A zero Target steps
// every engine.
type StepRequest struct {
	Target ecs.Entity
}

var StepRequestComponent = component.NewComponent[StepRequest]()

// RequestStep queues a step for target, or for every engine when target is
// zero.
func RequestStep(w *ecs.World, target ecs.Entity) {
	if w == nil {
		return
	}
	ent := ecs.CreateEntity(w)
	_ = ecs.Add(w, ent, StepRequestComponent.Kind(), &StepRequest{Target: target})
}

// StartDialogue spawns an entity that will run the program at path.
func StartDialogue(w *ecs.World, path, startNode string) ecs.Entity {
	ent := ecs.CreateEntity(w)
	_ = ecs.Add(w, ent, YarnDataComponent.Kind(), &YarnData{Path: path, StartNode: startNode})
	return ent
}

// Despawn closes the entity's machine, if any, and destroys it.
func Despawn(w *ecs.World, e ecs.Entity) bool {
	if eng, ok := ecs.Get(w, e, DialogueEngineComponent.Kind()); ok && eng.Machine != nil {
		_ = eng.Machine.Close()
	}
	return ecs.DestroyEntity(w, e)
}
