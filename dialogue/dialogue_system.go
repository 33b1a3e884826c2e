package dialogue

import (
	"log/slog"

	"golang.org/x/text/language"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
)

// maxSuspendsPerStep bounds a single step so a VM that never yields a line
// cannot hang the tick.
const maxSuspendsPerStep = 4096

type queuedCommand struct {
	handler CommandHandlerFunc
	args    []string
}

// DialogueSystem consumes StepRequests, runs each targeted engine until it
// produces something to show, and republishes what the VM reported as
// events. Registered command handlers run after every engine has stepped.
type DialogueSystem struct {
	server *assets.Server
	locale language.Tag
	log    *slog.Logger
}

func NewDialogueSystem(server *assets.Server, locale language.Tag, log *slog.Logger) *DialogueSystem {
	return &DialogueSystem{server: server, locale: locale, log: log}
}

func (s *DialogueSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	requests := consumeStepRequests(w)
	if len(requests) == 0 {
		return
	}

	registry := commandRegistry(w)
	var queued []queuedCommand
	for _, req := range requests {
		s.log.Debug("dialogue: step requested", "target", req.Target)
		ecs.ForEach(w, DialogueEngineComponent.Kind(), func(e ecs.Entity, engine *DialogueEngine) {
			if req.Target.Valid() && req.Target != e {
				return
			}
			queued = append(queued, s.step(w, e, engine, registry)...)
		})
	}

	for _, q := range queued {
		q.handler(w, q.args)
	}
}

func consumeStepRequests(w *ecs.World) []StepRequest {
	var out []StepRequest
	ecs.ForEach(w, StepRequestComponent.Kind(), func(e ecs.Entity, req *StepRequest) {
		out = append(out, *req)
		ecs.DestroyEntity(w, e)
	})
	return out
}

func (s *DialogueSystem) step(w *ecs.World, e ecs.Entity, engine *DialogueEngine, registry *CommandHandlers) []queuedCommand {
	log := s.log.With("engine", engine.ID, "name", engine.Name)
	if engine.Complete {
		log.Debug("dialogue: step ignored, dialogue complete")
		return nil
	}
	if engine.Machine == nil {
		log.Warn("dialogue: engine has no machine")
		return nil
	}

	lines, okLines := assets.Get(s.server, engine.StringTable)
	metadata, okMetadata := assets.Get(s.server, engine.MetadataTable)
	if !okLines || !okMetadata {
		log.Warn("dialogue: tables not loaded, skipping step")
		return nil
	}
	format := Formatter{Strings: lines, Metadata: metadata, Locale: s.locale, Log: log}

	var queued []queuedCommand
	for i := 0; i < maxSuspendsPerStep; i++ {
		sus, err := engine.Machine.Continue()
		if err != nil {
			log.Warn("dialogue: error during yarn execution", "err", err)
			return queued
		}

		switch sus.Kind {
		case SuspendNop:
		case SuspendLine:
			engine.NumChoices = 0
			ecs.Emit(w, SayEvent{Engine: e, Line: format.Line(sus.Line)})
			return queued
		case SuspendOptions:
			choices := format.Choices(sus.Options)
			engine.NumChoices = len(choices)
			ecs.Emit(w, ChoicesEvent{Engine: e, Choices: choices})
			return queued
		case SuspendCommand:
			log.Debug("dialogue: received command", "text", sus.Command)
			engine.NumChoices = 0
			cmd := ParseCommand(sus.Command)
			if fn, ok := registry.Lookup(cmd.Name); ok {
				log.Info("dialogue: calling registered command", "command", cmd.Name, "args", cmd.Args)
				cmd.Handled = true
				queued = append(queued, queuedCommand{handler: fn, args: cmd.Args})
			} else {
				log.Info("dialogue: found unregistered command", "command", cmd.Name, "args", cmd.Args)
			}
			ecs.Emit(w, CommandEvent{Engine: e, Command: cmd})
		case SuspendNodeChange:
			log.Debug("dialogue: node change", "from", sus.From, "to", sus.To)
			engine.NumChoices = 0
			engine.Node = sus.To
		case SuspendDialogueComplete:
			log.Debug("dialogue: end of dialogue", "node", sus.Node)
			engine.NumChoices = 0
			engine.Complete = true
			ecs.Emit(w, EndConversationEvent{Engine: e})
			return queued
		case SuspendInvalidOption:
			log.Warn("dialogue: invalid option selected", "option", sus.Option)
		default:
			log.Warn("dialogue: unknown suspend reason", "kind", sus.Kind)
		}
	}
	log.Warn("dialogue: step abandoned, machine never yielded", "suspends", maxSuspendsPerStep)
	return queued
}
