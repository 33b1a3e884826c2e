package ecs

type System interface {
	Update(w *World)
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(w *World)

func (f SystemFunc) Update(w *World) {
	f(w)
}

// Stage orders groups of systems within a single tick.
type Stage int

const (
	PreUpdate Stage = iota
	Update
	PostUpdate
	stageCount
)

func (s Stage) String() string {
	switch s {
	case PreUpdate:
		return "pre_update"
	case Update:
		return "update"
	case PostUpdate:
		return "post_update"
	default:
		return "unknown"
	}
}

// Scheduler runs its systems in the order they were added. The zero value
// is ready to use.
type Scheduler struct {
	systems []System
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

func (s *Scheduler) Update(w *World) {
	for _, system := range s.systems {
		system.Update(w)
	}
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}
