package ecs

import "github.com/milk9111/ebiten-yarn/ecs/component"

// World owns entities, component storage, staged systems and the per-tick
// event queue.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	stages   [stageCount]Scheduler
	events   EventQueue
	tick     uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: map[component.ComponentID]*SparseSet{}}
}

// AddSystem appends a system to the Update stage.
func (w *World) AddSystem(s System) {
	w.AddStageSystem(Update, s)
}

// AddStageSystem appends a system to the given stage.
func (w *World) AddStageSystem(stage Stage, s System) {
	if w == nil || s == nil || stage < 0 || stage >= stageCount {
		return
	}
	w.stages[stage].Add(s)
}

// Systems returns every registered system in execution order.
func (w *World) Systems() []System {
	if w == nil {
		return nil
	}
	var out []System
	for i := range w.stages {
		out = append(out, w.stages[i].Systems()...)
	}
	return out
}

// Update runs every stage once, then drops the events emitted this tick.
func (w *World) Update() {
	if w == nil {
		return
	}
	for i := range w.stages {
		w.stages[i].Update(w)
	}
	w.events.flush()
	w.tick++
}

// Tick returns the number of completed updates.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	if w.stores == nil {
		w.stores = map[component.ComponentID]*SparseSet{}
	}
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}
