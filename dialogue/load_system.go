package dialogue

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
)

// LoadSystem turns YarnData entities into running DialogueEngines once the
// program and both of its tables are loaded.
type LoadSystem struct {
	server  *assets.Server
	factory MachineFactory
	log     *slog.Logger
}

func NewLoadSystem(server *assets.Server, factory MachineFactory, log *slog.Logger) *LoadSystem {
	return &LoadSystem{server: server, factory: factory, log: log}
}

func (s *LoadSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, YarnDataComponent.Kind(), func(e ecs.Entity, data *YarnData) {
		h := assets.Load[*Program](s.server, data.Path)
		if !h.Valid() {
			s.log.Error("dialogue: yarn data has no program path", "entity", e)
			ecs.Remove(w, e, YarnDataComponent.Kind())
			return
		}
		if !s.server.Ready(h.Path()) {
			if path, err := s.failure(h); err != nil {
				s.log.Error("dialogue: failed to load program", "path", data.Path, "asset", path, "err", err)
				ecs.Remove(w, e, YarnDataComponent.Kind())
			}
			return
		}
		program, ok := assets.Get(s.server, h)
		if !ok {
			return
		}
		s.start(w, e, data, h, program)
	})
}

// failure returns the first failed asset among the program and its tables.
func (s *LoadSystem) failure(h assets.Handle[*Program]) (string, error) {
	paths := []string{h.Path()}
	if program, ok := assets.Get(s.server, h); ok {
		paths = append(paths, program.StringTable.Path(), program.MetadataTable.Path())
	}
	for _, p := range paths {
		if s.server.State(p) == assets.Failed {
			return p, s.server.Err(p)
		}
	}
	return "", nil
}

func (s *LoadSystem) start(w *ecs.World, e ecs.Entity, data *YarnData, h assets.Handle[*Program], program *Program) {
	defer ecs.Remove(w, e, YarnDataComponent.Kind())

	if s.factory == nil {
		s.log.Error("dialogue: no machine factory configured", "path", data.Path)
		return
	}
	machine, err := s.factory(program)
	if err != nil {
		s.log.Error("dialogue: create machine", "path", data.Path, "err", err)
		return
	}

	start := data.StartNode
	if start == "" {
		start = DefaultStartNode
	}
	if err := machine.SetNode(start); err != nil {
		s.log.Error("dialogue: set start node", "path", data.Path, "node", start, "err", err)
		_ = machine.Close()
		return
	}

	engine := &DialogueEngine{
		ID:            uuid.New(),
		Name:          data.Path,
		Machine:       machine,
		Node:          start,
		Program:       h,
		StringTable:   program.StringTable,
		MetadataTable: program.MetadataTable,
	}
	if err := ecs.Add(w, e, DialogueEngineComponent.Kind(), engine); err != nil {
		s.log.Error("dialogue: attach engine", "path", data.Path, "err", err)
		_ = machine.Close()
		return
	}

	s.log.Info("dialogue: finished loading program", "path", data.Path, "engine", engine.ID)
	RequestStep(w, e)
}
