package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Clip is decoded 16-bit stereo PCM at the loader's sample rate.
type Clip struct {
	Name string
	PCM  []byte
}

// AudioLoader decodes wav, ogg and mp3 files into Clips.
type AudioLoader struct {
	SampleRate int
}

func (AudioLoader) Extensions() []string {
	return []string{"wav", "ogg", "mp3"}
}

func (a AudioLoader) Load(_ context.Context, lc *LoadContext, data []byte) (any, error) {
	rate := a.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	reader := bytes.NewReader(data)

	var (
		stream io.Reader
		err    error
	)
	switch strings.ToLower(path.Ext(lc.Path())) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(rate, reader)
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(rate, reader)
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(rate, reader)
	default:
		return nil, fmt.Errorf("assets: unsupported audio %q", lc.Path())
	}
	if err != nil {
		return nil, fmt.Errorf("assets: decode %q: %w", lc.Path(), err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("assets: read %q: %w", lc.Path(), err)
	}
	return &Clip{Name: lc.Path(), PCM: pcm}, nil
}
