package music

import (
	"strconv"

	"github.com/milk9111/ebiten-yarn/dialogue"
	"github.com/milk9111/ebiten-yarn/ecs"
)

// Commands returns the yarn commands
//
//	<<music track [volume]>>
//	<<stop_music>>
func Commands() []dialogue.NamedCommand {
	return []dialogue.NamedCommand{
		{Name: "music", Handler: musicCommand},
		{Name: "stop_music", Handler: func(w *ecs.World, _ []string) { StopMusic(w) }},
	}
}

func musicCommand(w *ecs.World, args []string) {
	if len(args) == 0 {
		StopMusic(w)
		return
	}
	req := &Request{Track: args[0], Loop: true, FadeOutFrames: defaultFadeFrames}
	if len(args) > 1 {
		if v, err := strconv.ParseFloat(args[1], 64); err == nil {
			req.Volume = v
		}
	}
	RequestMusicWithOptions(w, req)
}
