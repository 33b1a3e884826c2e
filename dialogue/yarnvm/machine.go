// Package yarnvm adapts github.com/DrJosh9000/yarn to dialogue.Machine.
//
// The yarn VM runs a whole dialogue in one blocking call and reports progress
// through handler callbacks. Machine runs it on a goroutine and parks that
// goroutine inside each callback until the next Continue, which turns the
// callbacks into the step-at-a-time interface the dialogue systems expect.
package yarnvm

import (
	"errors"
	"fmt"

	"github.com/DrJosh9000/yarn"
	"github.com/DrJosh9000/yarn/bytecode"

	"github.com/milk9111/ebiten-yarn/dialogue"
)

// errStopped is returned from handler callbacks to unwind a VM that is being
// closed or restarted.
var errStopped = errors.New("yarnvm: stopped")

// RunFunc runs a program from startNode, calling back into h. The default
// runs a yarn.VirtualMachine.
type RunFunc func(program *bytecode.Program, vars yarn.VariableStorage, h yarn.DialogueHandler, startNode string) error

func runVM(program *bytecode.Program, vars yarn.VariableStorage, h yarn.DialogueHandler, startNode string) error {
	vm := &yarn.VirtualMachine{
		Program: program,
		Handler: h,
		Vars:    vars,
	}
	return vm.Run(startNode)
}

type Option func(*Machine)

// WithVars sets the variable storage. Defaults to a fresh
// yarn.MapVariableStorage per machine.
func WithVars(vars yarn.VariableStorage) Option {
	return func(m *Machine) {
		m.vars = vars
	}
}

// WithRunner replaces the VM entry point.
func WithRunner(run RunFunc) Option {
	return func(m *Machine) {
		m.run = run
	}
}

// New returns a factory for the dialogue plugin.
func New(opts ...Option) dialogue.MachineFactory {
	return func(p *dialogue.Program) (dialogue.Machine, error) {
		if p == nil || p.Program == nil {
			return nil, errors.New("yarnvm: nil program")
		}
		return NewMachine(p.Program, opts...), nil
	}
}

type step struct {
	sus dialogue.Suspend
	err error
}

// Machine is a dialogue.Machine over a yarn VM. It must be driven from a
// single goroutine.
type Machine struct {
	program *bytecode.Program
	vars    yarn.VariableStorage
	run     RunFunc
	node    string

	// Per-run state. steps carries suspends from the VM goroutine, resume
	// releases it, quit unwinds it and done closes once it has exited.
	running bool
	steps   chan step
	resume  chan int
	quit    chan struct{}
	done    chan struct{}

	options  []dialogue.Option
	choice   int
	invalid  int
	rejected bool
	complete bool
	lastNode string
	err      error
	closed   bool
}

func NewMachine(program *bytecode.Program, opts ...Option) *Machine {
	m := &Machine{
		program: program,
		run:     runVM,
		node:    dialogue.DefaultStartNode,
		choice:  -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.vars == nil {
		m.vars = yarn.MapVariableStorage{}
	}
	return m
}

// SetNode picks the node the next Continue starts from. A running dialogue
// is stopped first; variables are kept.
func (m *Machine) SetNode(name string) error {
	if m.closed {
		return dialogue.ErrMachineClosed
	}
	if name == "" {
		return errors.New("yarnvm: empty node name")
	}
	m.stop()
	m.node = name
	return nil
}

// SetSelectedOption records the player's choice for the pending option set.
// An out of range index is reported by the next Continue as an invalid
// option and the options stay pending.
func (m *Machine) SetSelectedOption(index int) error {
	if m.closed {
		return dialogue.ErrMachineClosed
	}
	if m.options == nil {
		return dialogue.ErrNotWaiting
	}
	if index < 0 || index >= len(m.options) {
		m.invalid, m.rejected = index, true
		return nil
	}
	m.choice = index
	return nil
}

func (m *Machine) Continue() (dialogue.Suspend, error) {
	switch {
	case m.closed:
		return dialogue.Suspend{}, dialogue.ErrMachineClosed
	case m.err != nil:
		return dialogue.Suspend{}, m.err
	case m.complete:
		return dialogue.Suspend{Kind: dialogue.SuspendDialogueComplete, Node: m.lastNode}, nil
	case m.rejected:
		m.rejected = false
		return dialogue.Suspend{Kind: dialogue.SuspendInvalidOption, Option: m.invalid}, nil
	case m.options != nil && m.choice < 0:
		return dialogue.Suspend{}, dialogue.ErrNoOption
	}

	if !m.running {
		m.start()
	} else {
		m.resume <- m.choice
		m.options, m.choice = nil, -1
	}

	st := <-m.steps
	if st.err != nil {
		m.err = fmt.Errorf("yarnvm: %w", st.err)
		m.running = false
		return dialogue.Suspend{}, m.err
	}
	switch st.sus.Kind {
	case dialogue.SuspendOptions:
		m.options = st.sus.Options
	case dialogue.SuspendNodeChange:
		m.lastNode = st.sus.To
	case dialogue.SuspendDialogueComplete:
		m.complete = true
		m.lastNode = st.sus.Node
		m.running = false
	}
	return st.sus, nil
}

func (m *Machine) Close() error {
	if m.closed {
		return nil
	}
	m.stop()
	m.closed = true
	return nil
}

func (m *Machine) start() {
	m.running = true
	m.complete, m.err = false, nil
	m.options, m.choice, m.rejected = nil, -1, false

	steps := make(chan step)
	quit := make(chan struct{})
	done := make(chan struct{})
	m.steps, m.quit, m.done = steps, quit, done
	m.resume = make(chan int)

	h := &handler{steps: steps, resume: m.resume, quit: quit}
	run, program, vars, node := m.run, m.program, m.vars, m.node
	go func() {
		defer close(done)
		err := run(program, vars, h, node)
		if errors.Is(err, errStopped) || h.finished {
			return
		}
		if err == nil {
			// The VM returned without reporting completion.
			h.send(dialogue.Suspend{Kind: dialogue.SuspendDialogueComplete, Node: h.current})
			return
		}
		select {
		case steps <- step{err: err}:
		case <-quit:
		}
	}()
}

// stop unwinds the VM goroutine, if any, and waits for it to exit.
func (m *Machine) stop() {
	if m.quit == nil {
		return
	}
	close(m.quit)
	<-m.done
	m.quit, m.done = nil, nil
	m.running = false
	m.options, m.choice, m.rejected = nil, -1, false
	m.complete, m.err = false, nil
}

// handler runs on the VM goroutine.
type handler struct {
	steps  chan<- step
	resume <-chan int
	quit   <-chan struct{}

	current  string
	finished bool
}

func (h *handler) send(sus dialogue.Suspend) bool {
	select {
	case h.steps <- step{sus: sus}:
		return true
	case <-h.quit:
		return false
	}
}

// suspend hands sus to Continue and blocks until the next Continue.
func (h *handler) suspend(sus dialogue.Suspend) (int, error) {
	if !h.send(sus) {
		return 0, errStopped
	}
	select {
	case choice := <-h.resume:
		return choice, nil
	case <-h.quit:
		return 0, errStopped
	}
}

func (h *handler) NodeStart(name string) error {
	from := h.current
	h.current = name
	_, err := h.suspend(dialogue.Suspend{Kind: dialogue.SuspendNodeChange, From: from, To: name})
	return err
}

func (h *handler) PrepareForLines([]string) error {
	return nil
}

func (h *handler) Line(line yarn.Line) error {
	_, err := h.suspend(dialogue.Suspend{Kind: dialogue.SuspendLine, Line: dialogue.Line(line)})
	return err
}

func (h *handler) Options(options []yarn.Option) (int, error) {
	opts := make([]dialogue.Option, len(options))
	for i, o := range options {
		opts[i] = dialogue.Option{ID: o.ID, Line: dialogue.Line(o.Line), DestinationNode: o.DestinationNode}
	}
	choice, err := h.suspend(dialogue.Suspend{Kind: dialogue.SuspendOptions, Options: opts})
	if err != nil {
		return 0, err
	}
	return options[choice].ID, nil
}

func (h *handler) Command(command string) error {
	_, err := h.suspend(dialogue.Suspend{Kind: dialogue.SuspendCommand, Command: command})
	return err
}

func (h *handler) NodeComplete(string) error {
	return nil
}

func (h *handler) DialogueComplete() error {
	h.finished = true
	if !h.send(dialogue.Suspend{Kind: dialogue.SuspendDialogueComplete, Node: h.current}) {
		return errStopped
	}
	return nil
}
