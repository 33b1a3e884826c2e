package music

import "github.com/milk9111/ebiten-yarn/ecs/component"

// Player stores global music playback state on a dedicated ECS entity.
// The music system mutates this component; no playback state is kept on the system.
type Player struct {
	Tracks       map[string]Track
	TrackVolumes map[string]float64

	CurrentTrack  string
	CurrentVolume float64
	CurrentLoop   bool

	PendingTrack  string
	PendingVolume float64
	PendingLoop   bool
	PendingActive bool

	FadeStep float64
}

var PlayerComponent = component.NewComponent[Player]()

// Request is a one-shot request for global music playback.
//
// Only one track plays at a time. When a new request arrives while another
// track is playing, the current track fades out to silence, then the
// requested one starts. An empty Track fades out to silence and stops.
type Request struct {
	Track         string
	Volume        float64
	Loop          bool
	FadeOutFrames int
}

var RequestComponent = component.NewComponent[Request]()
