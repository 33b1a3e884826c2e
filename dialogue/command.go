package dialogue

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/ecs/component"
	"github.com/milk9111/ebiten-yarn/logging"
)

// CommandHandlerFunc runs when a yarn script issues <<name args...>>. It gets
// the world with no system iteration in progress, so it may freely create,
// modify and destroy entities.
type CommandHandlerFunc func(w *ecs.World, args []string)

// NamedCommand pairs a command name with its handler.
type NamedCommand struct {
	Name    string
	Handler CommandHandlerFunc
}

// Command is a parsed yarn command.
type Command struct {
	Name string
	Args []string
	// Handled is set when a registered handler was queued for this command.
	// Unhandled commands are only visible through CommandEvent.
	Handled bool
}

// commandTokenPattern matches runs of "quoted strings" or non-space chunks.
var commandTokenPattern = regexp.MustCompile(`(("[^"]+")|\S+)+`)

// ParseCommand splits command text into a name and arguments. Double quotes
// group words into a single argument and are dropped from the result.
func ParseCommand(text string) Command {
	var cmd Command
	for i, tok := range commandTokenPattern.FindAllString(text, -1) {
		tok = strings.ReplaceAll(tok, `"`, "")
		if i == 0 {
			cmd.Name = tok
			continue
		}
		cmd.Args = append(cmd.Args, tok)
	}
	return cmd
}

// CommandHandlers is the registry singleton installed by the plugin.
type CommandHandlers struct {
	handlers map[string]CommandHandlerFunc
	log      *slog.Logger
}

var CommandHandlersComponent = component.NewComponent[CommandHandlers]()

func NewCommandHandlers(cmds ...NamedCommand) *CommandHandlers {
	c := &CommandHandlers{handlers: make(map[string]CommandHandlerFunc, len(cmds))}
	for _, cmd := range cmds {
		c.Set(cmd.Name, cmd.Handler)
	}
	return c
}

// Set registers fn under name, replacing any existing handler. A nil fn
// removes the handler.
func (c *CommandHandlers) Set(name string, fn CommandHandlerFunc) {
	if c.handlers == nil {
		c.handlers = map[string]CommandHandlerFunc{}
	}
	if fn == nil {
		delete(c.handlers, name)
		return
	}
	c.handlers[name] = fn
}

func (c *CommandHandlers) Lookup(name string) (CommandHandlerFunc, bool) {
	if c == nil {
		return nil, false
	}
	fn, ok := c.handlers[name]
	return fn, ok
}

// Names returns the registered command names, sorted.
func (c *CommandHandlers) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func commandRegistry(w *ecs.World) *CommandHandlers {
	ent, ok := ecs.First(w, CommandHandlersComponent.Kind())
	if !ok {
		return nil
	}
	reg, _ := ecs.Get(w, ent, CommandHandlersComponent.Kind())
	return reg
}

// AddCommand registers or replaces a command handler after the plugin has
// been installed. It reports false when no registry exists; with no plugin
// there is no plugin logger, so that warning goes to the default logger.
func AddCommand(w *ecs.World, name string, fn CommandHandlerFunc) bool {
	reg := commandRegistry(w)
	if reg == nil {
		slog.Warn("dialogue: attempted to add command but no command registry exists; was the plugin installed?", "command", name)
		return false
	}
	if _, ok := reg.Lookup(name); ok {
		reg.logger().Warn("dialogue: replacing command", "command", name)
	} else {
		reg.logger().Debug("dialogue: adding command", "command", name)
	}
	reg.Set(name, fn)
	return true
}

func (c *CommandHandlers) logger() *slog.Logger {
	return logging.Or(c.log)
}
