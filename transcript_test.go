package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/milk9111/ebiten-yarn/dialogue"
	"github.com/milk9111/ebiten-yarn/ecs"
)

func TestTranscriptRecordsEvents(t *testing.T) {
	w := ecs.NewWorld()
	tr := NewTranscript(false)
	w.AddStageSystem(ecs.PostUpdate, tr)
	engine := ecs.CreateEntity(w)

	emit := func(events ...any) {
		for _, e := range events {
			ecs.Emit(w, e)
		}
		w.Update()
	}

	emit(
		dialogue.SayEvent{Engine: engine, Line: dialogue.FormattedLine{Character: "Sally", Text: "Hi."}},
		dialogue.CommandEvent{Engine: engine, Command: dialogue.Command{Name: "music", Args: []string{"a.ogg"}, Handled: true}},
		dialogue.CommandEvent{Engine: engine, Command: dialogue.Command{Name: "wave", Args: []string{"Sally"}}},
	)
	assert.Equal(t, []string{"Sally: Hi.", "<<wave Sally>>"}, tr.Tail(10))
	assert.Equal(t, 0, tr.version)

	emit(dialogue.ChoicesEvent{Engine: engine, Choices: []dialogue.Choice{
		{Line: dialogue.FormattedLine{Text: "Yes"}},
		{Line: dialogue.FormattedLine{Text: "No"}},
	}})
	assert.Equal(t, engine, tr.engine)
	assert.Len(t, tr.choices, 2)
	assert.Equal(t, 1, tr.version)

	emit(dialogue.SayEvent{Engine: engine, Line: dialogue.FormattedLine{Text: "Narration."}})
	assert.Empty(t, tr.choices)
	assert.Equal(t, 2, tr.version)

	emit(dialogue.ScriptEvent{Name: "shake", Args: []string{"3"}}, dialogue.EndConversationEvent{Engine: engine})
	assert.True(t, tr.ended)
	assert.Equal(t, []string{"* shake 3", "(end of conversation)"}, tr.Tail(2))
	assert.Equal(t, "Sally: Hi.\n<<wave Sally>>\n  1) Yes\n  2) No\nNarration.\n* shake 3\n(end of conversation)", tr.Text())
}

func TestTranscriptIsBounded(t *testing.T) {
	tr := NewTranscript(true)
	for i := 0; i < maxTranscriptLines+10; i++ {
		tr.add("x")
	}
	assert.Len(t, tr.lines, maxTranscriptLines)
	assert.Len(t, tr.Tail(5), 5)
}
