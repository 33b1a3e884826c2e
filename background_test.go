package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/colornames"

	"github.com/milk9111/ebiten-yarn/ecs"
)

func TestSetBackground(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want color.RGBA
	}{
		{"keyword", []string{"MidnightBlue"}, colornames.Midnightblue},
		{"unknown", []string{"notacolour"}, defaultBackground},
		{"no_args", nil, defaultBackground},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			assert.Equal(t, defaultBackground, backgroundColor(w))
			installBackground(w)
			installBackground(w)
			setBackground(w, c.args)
			assert.Equal(t, c.want, backgroundColor(w))
		})
	}
}
