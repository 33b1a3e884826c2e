package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
)

// Script is a compiled tengo command script. Each call runs on a clone, so
// globals do not leak between invocations.
type Script struct {
	Path     string
	compiled *tengo.Compiled
}

// ScriptEvent is emitted by a command script calling emit(name, args...).
type ScriptEvent struct {
	Name string
	Args []string
}

// CompileScript compiles src with the globals every command script sees:
// args (array of strings) and engine (functions into the game).
func CompileScript(path string, src []byte) (*Script, error) {
	script := tengo.NewScript(src)
	_ = script.Add("args", []any{})
	_ = script.Add("engine", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	return &Script{Path: path, compiled: compiled}, nil
}

// Run executes the script once with args bound.
func (s *Script) Run(w *ecs.World, args []string, log *slog.Logger) error {
	if s == nil || s.compiled == nil {
		return fmt.Errorf("dialogue: nil script")
	}
	c := s.compiled.Clone()

	tengoArgs := make([]any, len(args))
	for i, a := range args {
		tengoArgs[i] = a
	}
	if err := c.Set("args", tengoArgs); err != nil {
		return err
	}
	if err := c.Set("engine", scriptEngine(w, s.Path, log)); err != nil {
		return err
	}
	return c.Run()
}

func scriptEngine(w *ecs.World, path string, log *slog.Logger) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["emit"] = &tengo.UserFunction{Name: "emit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		evt := ScriptEvent{Name: name}
		for _, a := range args[1:] {
			evt.Args = append(evt.Args, objectAsString(a))
		}
		ecs.Emit(w, evt)
		return tengo.TrueValue, nil
	}}

	values["step"] = &tengo.UserFunction{Name: "step", Value: func(args ...tengo.Object) (tengo.Object, error) {
		RequestStep(w, 0)
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Info("dialogue: script", "script", path, "msg", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(o tengo.Object) string {
	if s, ok := o.(*tengo.String); ok {
		return s.Value
	}
	if s, ok := tengo.ToString(o); ok {
		return s
	}
	return ""
}

// ScriptLoader compiles .tengo files into Scripts.
type ScriptLoader struct{}

func (ScriptLoader) Extensions() []string {
	return []string{"tengo"}
}

func (ScriptLoader) Load(_ context.Context, lc *assets.LoadContext, data []byte) (any, error) {
	s, err := CompileScript(lc.Path(), data)
	if err != nil {
		return nil, fmt.Errorf("dialogue: compile %s: %w", lc.Path(), err)
	}
	return s, nil
}

// ScriptCommand returns a handler that runs the tengo script at path. The
// script is loaded through the asset server, so edits are picked up by hot
// reload.
func ScriptCommand(server *assets.Server, path string, log *slog.Logger) CommandHandlerFunc {
	h := assets.Load[*Script](server, path)
	return func(w *ecs.World, args []string) {
		script, ok := assets.Get(server, h)
		if !ok {
			log.Warn("dialogue: command script not loaded", "script", h.Path(), "state", server.State(h.Path()))
			return
		}
		if err := script.Run(w, args, log); err != nil {
			log.Warn("dialogue: command script failed", "script", h.Path(), "err", err)
		}
	}
}
