// Package music plays one background track at a time, cross-fading through
// silence when the track changes. Requests are entities carrying a Request
// component; the state lives on a single Player entity.
package music

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/logging"
)

const (
	defaultVolume     = 1.0
	defaultFadeFrames = 30
)

type System struct {
	source Source
	log    *slog.Logger
}

func NewSystem(source Source, log *slog.Logger) *System {
	return &System{source: source, log: logging.Or(log)}
}

// Install spawns the Player singleton if there is none yet.
func Install(w *ecs.World) ecs.Entity {
	if ent, ok := ecs.First(w, PlayerComponent.Kind()); ok {
		return ent
	}
	ent := ecs.CreateEntity(w)
	_ = ecs.Add(w, ent, PlayerComponent.Kind(), &Player{
		Tracks:       map[string]Track{},
		TrackVolumes: map[string]float64{},
	})
	return ent
}

func RequestMusic(w *ecs.World, track string) {
	RequestMusicWithOptions(w, &Request{Track: track, Loop: true, FadeOutFrames: defaultFadeFrames})
}

func RequestMusicWithOptions(w *ecs.World, req *Request) {
	if w == nil || req == nil {
		return
	}
	ent := ecs.CreateEntity(w)
	_ = ecs.Add(w, ent, RequestComponent.Kind(), req)
}

func StopMusic(w *ecs.World) {
	RequestMusicWithOptions(w, &Request{FadeOutFrames: defaultFadeFrames})
}

func (m *System) Update(w *ecs.World) {
	if w == nil {
		return
	}

	latest, requestEntities := m.consumeLatestRequest(w)
	for _, ent := range requestEntities {
		ecs.DestroyEntity(w, ent)
	}

	ent, ok := ecs.First(w, PlayerComponent.Kind())
	if !ok {
		return
	}
	player, ok := ecs.Get(w, ent, PlayerComponent.Kind())
	if !ok || player == nil {
		return
	}
	if player.Tracks == nil {
		player.Tracks = make(map[string]Track)
	}
	if player.TrackVolumes == nil {
		player.TrackVolumes = make(map[string]float64)
	}

	if latest != nil {
		m.applyRequest(player, *latest)
	}

	if player.PendingActive {
		m.updateTransition(player)
		return
	}

	current := m.currentTrack(player)
	if current != nil && !current.IsPlaying() && player.CurrentTrack != "" && player.CurrentLoop {
		_ = current.Rewind()
		current.SetVolume(player.CurrentVolume)
		current.Play()
	}
}

func (m *System) consumeLatestRequest(w *ecs.World) (*Request, []ecs.Entity) {
	var latest *Request
	var requestEntities []ecs.Entity

	ecs.ForEach(w, RequestComponent.Kind(), func(ent ecs.Entity, req *Request) {
		requestEntities = append(requestEntities, ent)
		r := *req
		latest = &r
	})

	return latest, requestEntities
}

func (m *System) applyRequest(player *Player, req Request) {
	track := strings.TrimSpace(req.Track)
	volume := req.Volume
	if volume <= 0 {
		if v, ok := player.TrackVolumes[track]; ok && v > 0 {
			volume = v
		} else {
			volume = defaultVolume
		}
	}
	if volume > 1 {
		volume = 1
	}
	fadeFrames := req.FadeOutFrames
	if fadeFrames <= 0 {
		fadeFrames = defaultFadeFrames
	}

	current := m.currentTrack(player)
	if track == "" {
		player.PendingActive = false
		if current == nil {
			player.CurrentTrack = ""
			player.CurrentVolume = 0
			player.CurrentLoop = false
			return
		}
		player.PendingTrack = ""
		player.PendingVolume = 0
		player.PendingLoop = false
		player.PendingActive = true
		player.FadeStep = fadeStep(player.CurrentVolume, fadeFrames)
		return
	}

	if !player.PendingActive && player.CurrentTrack == track && current != nil {
		player.CurrentVolume = volume
		player.CurrentLoop = req.Loop
		current.SetVolume(volume)
		if !current.IsPlaying() {
			_ = current.Rewind()
			current.Play()
		}
		return
	}

	player.PendingTrack = track
	player.PendingVolume = volume
	player.PendingLoop = req.Loop
	player.PendingActive = true
	if current == nil {
		return
	}
	player.FadeStep = fadeStep(player.CurrentVolume, fadeFrames)
}

func fadeStep(volume float64, frames int) float64 {
	step := volume / float64(frames)
	if step <= 0 {
		return 1
	}
	return step
}

func (m *System) updateTransition(player *Player) {
	current := m.currentTrack(player)
	if current == nil {
		m.switchToPending(player)
		return
	}

	player.CurrentVolume -= player.FadeStep
	if player.CurrentVolume > 0 {
		current.SetVolume(player.CurrentVolume)
		return
	}

	player.CurrentVolume = 0
	current.SetVolume(0)
	current.Pause()
	_ = current.Rewind()
	player.CurrentTrack = ""
	player.CurrentLoop = false
	m.switchToPending(player)
}

func (m *System) switchToPending(player *Player) {
	if !player.PendingActive {
		return
	}

	track := strings.TrimSpace(player.PendingTrack)
	if track == "" {
		m.clearPending(player)
		player.CurrentTrack = ""
		player.CurrentVolume = 0
		player.CurrentLoop = false
		return
	}

	t, err := m.trackFor(player, track)
	if errors.Is(err, ErrTrackLoading) {
		return
	}
	volume, loop := player.PendingVolume, player.PendingLoop
	m.clearPending(player)
	if err != nil {
		m.log.Warn("music: load failed", "track", track, "err", err)
		player.CurrentTrack = ""
		player.CurrentVolume = 0
		player.CurrentLoop = false
		return
	}

	player.CurrentTrack = track
	player.CurrentVolume = volume
	player.CurrentLoop = loop
	player.TrackVolumes[track] = volume
	_ = t.Rewind()
	t.SetVolume(volume)
	t.Play()
	m.log.Debug("music: playing", "track", track, "volume", volume, "loop", loop)
}

func (m *System) clearPending(player *Player) {
	player.PendingTrack = ""
	player.PendingVolume = 0
	player.PendingLoop = false
	player.PendingActive = false
	player.FadeStep = 0
}

func (m *System) currentTrack(player *Player) Track {
	if strings.TrimSpace(player.CurrentTrack) == "" || player.Tracks == nil {
		return nil
	}
	return player.Tracks[player.CurrentTrack]
}

func (m *System) trackFor(player *Player, name string) (Track, error) {
	if existing, ok := player.Tracks[name]; ok && existing != nil {
		return existing, nil
	}
	if m.source == nil {
		return nil, errors.New("music: no track source")
	}
	t, err := m.source.Open(name)
	if err != nil {
		return nil, err
	}
	player.Tracks[name] = t
	return t, nil
}
