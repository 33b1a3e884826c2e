package music

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/milk9111/ebiten-yarn/assets"
)

// ErrTrackLoading means the track's asset is still loading. The system keeps
// the request pending and asks again next tick.
var ErrTrackLoading = errors.New("music: track still loading")

// Track is the subset of *audio.Player the system drives.
type Track interface {
	Play()
	Pause()
	Rewind() error
	IsPlaying() bool
	SetVolume(volume float64)
}

// Source opens tracks by asset path.
type Source interface {
	Open(track string) (Track, error)
}

// AssetSource plays clips decoded by assets.AudioLoader.
type AssetSource struct {
	Server  *assets.Server
	Context *audio.Context
}

func (s AssetSource) Open(track string) (Track, error) {
	if s.Server == nil || s.Context == nil {
		return nil, errors.New("music: asset source needs a server and an audio context")
	}
	h := assets.Load[*assets.Clip](s.Server, track)
	switch s.Server.State(h.Path()) {
	case assets.Loaded:
	case assets.Failed:
		return nil, fmt.Errorf("music: load %q: %w", track, s.Server.Err(h.Path()))
	default:
		return nil, ErrTrackLoading
	}
	clip, ok := assets.Get(s.Server, h)
	if !ok {
		return nil, fmt.Errorf("music: %q is not an audio clip", track)
	}
	return s.Context.NewPlayerFromBytes(clip.PCM), nil
}
