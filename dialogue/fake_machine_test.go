package dialogue

import "errors"

type fakeStep struct {
	sus Suspend
	err error
}

// fakeMachine replays a fixed list of suspends. Options suspends wait for
// SetSelectedOption before the replay continues.
type fakeMachine struct {
	steps     []fakeStep
	pos       int
	node      string
	awaiting  bool
	selected  []int
	closed    bool
	continues int
}

func (m *fakeMachine) SetNode(name string) error {
	if name == "" {
		return errors.New("empty node")
	}
	m.node = name
	return nil
}

func (m *fakeMachine) SetSelectedOption(index int) error {
	if !m.awaiting {
		return ErrNotWaiting
	}
	m.awaiting = false
	m.selected = append(m.selected, index)
	return nil
}

func (m *fakeMachine) Continue() (Suspend, error) {
	m.continues++
	if m.closed {
		return Suspend{}, ErrMachineClosed
	}
	if m.awaiting {
		return Suspend{}, ErrNoOption
	}
	if m.pos >= len(m.steps) {
		return Suspend{Kind: SuspendDialogueComplete, Node: m.node}, nil
	}
	step := m.steps[m.pos]
	m.pos++
	if step.sus.Kind == SuspendOptions {
		m.awaiting = true
	}
	return step.sus, step.err
}

func (m *fakeMachine) Close() error {
	m.closed = true
	return nil
}
