package dialogue

import "errors"

var (
	ErrNoOption      = errors.New("dialogue: waiting for an option to be selected")
	ErrNotWaiting    = errors.New("dialogue: not waiting for an option")
	ErrMachineClosed = errors.New("dialogue: machine closed")
)

// Line is a line as reported by the VM: a string table id plus the values to
// substitute into its text.
type Line struct {
	ID            string
	Substitutions []string
}

// Option is one entry of an option set reported by the VM.
type Option struct {
	ID              int
	Line            Line
	DestinationNode string
}

// SuspendKind is the reason the VM stopped executing.
type SuspendKind int

const (
	SuspendNop SuspendKind = iota
	SuspendLine
	SuspendOptions
	SuspendCommand
	SuspendNodeChange
	SuspendDialogueComplete
	SuspendInvalidOption
)

func (k SuspendKind) String() string {
	switch k {
	case SuspendNop:
		return "nop"
	case SuspendLine:
		return "line"
	case SuspendOptions:
		return "options"
	case SuspendCommand:
		return "command"
	case SuspendNodeChange:
		return "node_change"
	case SuspendDialogueComplete:
		return "dialogue_complete"
	case SuspendInvalidOption:
		return "invalid_option"
	default:
		return "unknown"
	}
}

// Suspend carries the payload for a SuspendKind. Only the fields relevant to
// Kind are set.
type Suspend struct {
	Kind SuspendKind

	Line    Line
	Options []Option
	Command string

	// From and To name the nodes of a SuspendNodeChange.
	From string
	To   string
	// Node is the last node run, for SuspendDialogueComplete.
	Node string
	// Option is the rejected index, for SuspendInvalidOption.
	Option int
}

// Machine is the step interface of the external dialogue VM. Continue runs
// until the next suspend point.
type Machine interface {
	SetNode(name string) error
	SetSelectedOption(index int) error
	Continue() (Suspend, error)
	Close() error
}

// MachineFactory builds a Machine for a loaded program.
type MachineFactory func(program *Program) (Machine, error)
