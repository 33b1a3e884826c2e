package dialogue

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/ebiten-yarn/assets"
	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/logging"
)

const shakeScript = `
fmt := import("fmt")
strength := len(args) > 0 ? args[0] : "1"
engine.emit("shake", strength, fmt.sprintf("%d", len(args)))
engine.log("shaking", strength)
if len(args) > 1 {
	engine.step()
}
`

func TestScriptRun(t *testing.T) {
	script, err := CompileScript("shake.tengo", []byte(shakeScript))
	require.NoError(t, err)

	w := ecs.NewWorld()
	require.NoError(t, script.Run(w, []string{"3"}, logging.Discard()))
	assert.Equal(t, []ScriptEvent{{Name: "shake", Args: []string{"3", "1"}}}, ecs.Read[ScriptEvent](w))
	_, ok := ecs.First(w, StepRequestComponent.Kind())
	assert.False(t, ok)

	// Globals from one run do not leak into the next.
	w.Update()
	require.NoError(t, script.Run(w, nil, logging.Discard()))
	assert.Equal(t, []ScriptEvent{{Name: "shake", Args: []string{"1", "0"}}}, ecs.Read[ScriptEvent](w))

	require.NoError(t, script.Run(w, []string{"2", "now"}, logging.Discard()))
	_, ok = ecs.First(w, StepRequestComponent.Kind())
	assert.True(t, ok)
}

func TestCompileScriptError(t *testing.T) {
	_, err := CompileScript("bad.tengo", []byte("x := "))
	assert.Error(t, err)
}

func TestScriptCommand(t *testing.T) {
	server := assets.NewServer(fstest.MapFS{
		"scripts/shake.tengo": &fstest.MapFile{Data: []byte(shakeScript)},
		"scripts/bad.tengo":   &fstest.MapFile{Data: []byte("engine.emit(")},
	}, assets.WithLogger(logging.Discard()))
	t.Cleanup(func() { _ = server.Close() })
	server.Register(ScriptLoader{})

	shake := ScriptCommand(server, "scripts/shake.tengo", logging.Discard())
	bad := ScriptCommand(server, "scripts/bad.tengo", logging.Discard())

	w := ecs.NewWorld()
	shake(w, []string{"5"})
	assert.Empty(t, ecs.Read[ScriptEvent](w), "not loaded yet")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Flush(ctx))

	shake(w, []string{"5"})
	assert.Equal(t, []ScriptEvent{{Name: "shake", Args: []string{"5", "1"}}}, ecs.Read[ScriptEvent](w))

	assert.Equal(t, assets.Failed, server.State("scripts/bad.tengo"))
	bad(w, nil)
	assert.Len(t, ecs.Read[ScriptEvent](w), 1)
}
