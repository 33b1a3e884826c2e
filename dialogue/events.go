package dialogue

import "github.com/milk9111/ebiten-yarn/ecs"

// FormattedLine is a line ready for display.
type FormattedLine struct {
	// Line is the VM line the text was built from.
	Line Line
	// Text has substitutions applied and format functions expanded.
	Text string
	// Character is the speaker when the line starts with "Name: ".
	Character string
	Tags      []string
}

// Choice is one option the player can pick.
type Choice struct {
	LineID          string
	DestinationNode string
	Line            FormattedLine
}

// SayEvent asks the application to present a line.
type SayEvent struct {
	Engine ecs.Entity
	Line   FormattedLine
}

// ChoicesEvent offers a set of choices. Pick one with SelectOption.
type ChoicesEvent struct {
	Engine  ecs.Entity
	Choices []Choice
}

// CommandEvent is raised for every command, handled or not.
type CommandEvent struct {
	Engine  ecs.Entity
	Command Command
}

// EndConversationEvent is raised once when an engine's dialogue completes.
type EndConversationEvent struct {
	Engine ecs.Entity
}
