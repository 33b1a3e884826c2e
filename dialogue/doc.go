// Package dialogue runs compiled Yarn Spinner programs inside the ECS.
//
// Spawn an entity with YarnData (or call StartDialogue). Once the program and
// its string and metadata tables are loaded, the entity gets a DialogueEngine
// and its first step is requested. Each StepRequest runs the engine's Machine
// until it reports a line, an option set or the end of the dialogue; what the
// VM reports is published as SayEvent, ChoicesEvent, CommandEvent and
// EndConversationEvent for systems later in the same tick to read with
// ecs.Read.
//
// The VM itself lives behind the Machine interface; see package yarnvm.
package dialogue
