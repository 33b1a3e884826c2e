package music

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/ebiten-yarn/ecs"
	"github.com/milk9111/ebiten-yarn/logging"
)

type fakeTrack struct {
	playing bool
	volume  float64
	rewinds int
}

func (t *fakeTrack) Play()               { t.playing = true }
func (t *fakeTrack) Pause()              { t.playing = false }
func (t *fakeTrack) Rewind() error       { t.rewinds++; return nil }
func (t *fakeTrack) IsPlaying() bool     { return t.playing }
func (t *fakeTrack) SetVolume(v float64) { t.volume = v }

type fakeSource struct {
	tracks  map[string]*fakeTrack
	loading map[string]bool
	opens   int
}

func (s *fakeSource) Open(name string) (Track, error) {
	s.opens++
	if s.loading[name] {
		return nil, ErrTrackLoading
	}
	t, ok := s.tracks[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return t, nil
}

func setup(t *testing.T, src *fakeSource) (*ecs.World, *Player) {
	t.Helper()
	w := ecs.NewWorld()
	w.AddSystem(NewSystem(src, logging.Discard()))
	ent := Install(w)
	assert.Equal(t, ent, Install(w), "Install is idempotent")
	player, ok := ecs.Get(w, ent, PlayerComponent.Kind())
	require.True(t, ok)
	return w, player
}

func TestRequestStartsTrack(t *testing.T) {
	a := &fakeTrack{}
	w, player := setup(t, &fakeSource{tracks: map[string]*fakeTrack{"a.ogg": a}})

	RequestMusic(w, "a.ogg")
	w.Update()

	assert.True(t, a.playing)
	assert.Equal(t, "a.ogg", player.CurrentTrack)
	assert.Equal(t, 1.0, a.volume)
	_, ok := ecs.First(w, RequestComponent.Kind())
	assert.False(t, ok, "requests are consumed")
}

func TestChangingTrackFadesOut(t *testing.T) {
	a, b := &fakeTrack{}, &fakeTrack{}
	w, player := setup(t, &fakeSource{tracks: map[string]*fakeTrack{"a.ogg": a, "b.ogg": b}})

	RequestMusic(w, "a.ogg")
	w.Update()
	RequestMusicWithOptions(w, &Request{Track: "b.ogg", Volume: 0.5, FadeOutFrames: 4})
	w.Update()

	assert.True(t, a.playing)
	assert.InDelta(t, 0.75, a.volume, 1e-9)
	assert.False(t, b.playing)

	for i := 0; i < 3; i++ {
		w.Update()
	}
	assert.False(t, a.playing)
	assert.True(t, b.playing)
	assert.Equal(t, 0.5, b.volume)
	assert.Equal(t, "b.ogg", player.CurrentTrack)
	assert.False(t, player.CurrentLoop)
}

func TestStopMusic(t *testing.T) {
	a := &fakeTrack{}
	w, player := setup(t, &fakeSource{tracks: map[string]*fakeTrack{"a.ogg": a}})

	RequestMusic(w, "a.ogg")
	w.Update()
	RequestMusicWithOptions(w, &Request{FadeOutFrames: 2})
	w.Update()
	w.Update()

	assert.False(t, a.playing)
	assert.Empty(t, player.CurrentTrack)
	assert.False(t, player.PendingActive)
}

func TestLoopingTrackRestarts(t *testing.T) {
	a := &fakeTrack{}
	w, _ := setup(t, &fakeSource{tracks: map[string]*fakeTrack{"a.ogg": a}})

	RequestMusic(w, "a.ogg")
	w.Update()
	a.playing = false
	rewinds := a.rewinds
	w.Update()

	assert.True(t, a.playing)
	assert.Equal(t, rewinds+1, a.rewinds)
}

func TestLoadingTrackStaysPending(t *testing.T) {
	a := &fakeTrack{}
	src := &fakeSource{tracks: map[string]*fakeTrack{"a.ogg": a}, loading: map[string]bool{"a.ogg": true}}
	w, player := setup(t, src)

	RequestMusic(w, "a.ogg")
	w.Update()
	assert.True(t, player.PendingActive)
	assert.False(t, a.playing)

	src.loading["a.ogg"] = false
	w.Update()
	assert.False(t, player.PendingActive)
	assert.True(t, a.playing)
}

func TestMissingTrackIsDropped(t *testing.T) {
	w, player := setup(t, &fakeSource{})

	RequestMusic(w, "missing.ogg")
	w.Update()
	assert.False(t, player.PendingActive)
	assert.Empty(t, player.CurrentTrack)
}

func TestCommands(t *testing.T) {
	w := ecs.NewWorld()
	cmds := Commands()
	require.Len(t, cmds, 2)

	cmds[0].Handler(w, []string{"theme.ogg", "0.25"})
	ent, ok := ecs.First(w, RequestComponent.Kind())
	require.True(t, ok)
	req, _ := ecs.Get(w, ent, RequestComponent.Kind())
	assert.Equal(t, Request{Track: "theme.ogg", Volume: 0.25, Loop: true, FadeOutFrames: defaultFadeFrames}, *req)
	ecs.DestroyEntity(w, ent)

	cmds[1].Handler(w, nil)
	ent, ok = ecs.First(w, RequestComponent.Kind())
	require.True(t, ok)
	req, _ = ecs.Get(w, ent, RequestComponent.Kind())
	assert.Empty(t, req.Track)
}
