package dialogue

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/logging"
)

// DefaultLocale is used for plural and ordinal rules when none is set.
const DefaultLocale = "en"

// Plugin wires the dialogue loaders, the command registry and the systems
// into a world. Build one with PluginBuilder.
type Plugin struct {
	commands []NamedCommand
	factory  MachineFactory
	locale   string
	input    bool
	keys     KeySource
	log      *slog.Logger
}

type PluginBuilder struct {
	plugin Plugin
}

func NewPluginBuilder() *PluginBuilder {
	return &PluginBuilder{plugin: Plugin{locale: DefaultLocale}}
}

// WithCommands replaces every command added so far.
func (b *PluginBuilder) WithCommands(cmds ...NamedCommand) *PluginBuilder {
	b.plugin.commands = append([]NamedCommand(nil), cmds...)
	return b
}

// WithCommand adds a command, keeping those already added.
func (b *PluginBuilder) WithCommand(name string, fn CommandHandlerFunc) *PluginBuilder {
	b.plugin.commands = append(b.plugin.commands, NamedCommand{Name: name, Handler: fn})
	return b
}

func (b *PluginBuilder) WithMachineFactory(f MachineFactory) *PluginBuilder {
	b.plugin.factory = f
	return b
}

func (b *PluginBuilder) WithLocale(locale string) *PluginBuilder {
	b.plugin.locale = locale
	return b
}

// WithInput enables the built-in keyboard driver. A nil source reads the
// real keyboard.
func (b *PluginBuilder) WithInput(keys KeySource) *PluginBuilder {
	b.plugin.input = true
	b.plugin.keys = keys
	return b
}

func (b *PluginBuilder) WithLogger(l *slog.Logger) *PluginBuilder {
	b.plugin.log = l
	return b
}

func (b *PluginBuilder) Build() *Plugin {
	p := b.plugin
	p.commands = append([]NamedCommand(nil), b.plugin.commands...)
	return &p
}

// serverSystem publishes finished asset loads at the start of each tick.
type serverSystem struct {
	server *assets.Server
}

func (s serverSystem) Update(*ecs.World) {
	s.server.Update()
}

// Install registers the asset loaders on server, creates the command
// registry singleton (merging into an existing one) and adds the systems:
// asset publishing and loading in PreUpdate, input then stepping in Update.
func (p *Plugin) Install(w *ecs.World, server *assets.Server) error {
	if p == nil || w == nil || server == nil {
		return fmt.Errorf("dialogue: install needs a plugin, world and asset server")
	}
	log := logging.Or(p.log)

	locale, err := language.Parse(p.locale)
	if err != nil {
		return fmt.Errorf("dialogue: locale %q: %w", p.locale, err)
	}

	server.Register(ProgramLoader{})
	server.Register(StringTableLoader{})
	server.Register(MetadataTableLoader{})
	server.Register(ScriptLoader{})

	reg := commandRegistry(w)
	if reg == nil {
		reg = NewCommandHandlers()
		ent := ecs.CreateEntity(w)
		if err := ecs.Add(w, ent, CommandHandlersComponent.Kind(), reg); err != nil {
			return fmt.Errorf("dialogue: create command registry: %w", err)
		}
	}
	reg.log = log
	for _, cmd := range p.commands {
		reg.Set(cmd.Name, cmd.Handler)
	}

	w.AddStageSystem(ecs.PreUpdate, serverSystem{server: server})
	w.AddStageSystem(ecs.PreUpdate, NewLoadSystem(server, p.factory, log))
	if p.input {
		w.AddSystem(NewInputSystem(p.keys, log))
	}
	w.AddSystem(NewDialogueSystem(server, locale, log))

	log.Debug("dialogue: plugin installed", "commands", reg.Names(), "locale", locale, "input", p.input)
	return nil
}

// Shutdown closes every running machine.
func Shutdown(w *ecs.World) {
	ecs.ForEach(w, DialogueEngineComponent.Kind(), func(_ ecs.Entity, engine *DialogueEngine) {
		if engine.Machine != nil {
			_ = engine.Machine.Close()
		}
	})
}
