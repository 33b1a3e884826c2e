package main

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/ebiten-yarn/dialogue"
)

// ChoiceUI shows the current choices as a column of buttons along the bottom
// of the screen. Buttons use colored nine-slices and the built-in basic font,
// so no theme assets are needed.
type ChoiceUI struct {
	UI       *ebitenui.UI
	panel    *widget.Container
	face     ebtext.Face
	onSelect func(index int)
	version  int
}

func NewChoiceUI(onSelect func(index int)) *ChoiceUI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)
	panel.GetWidget().Visibility = widget.Visibility_Hide

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &ChoiceUI{
		UI:       &ebitenui.UI{Container: root},
		panel:    panel,
		face:     face,
		onSelect: onSelect,
	}
}

// Sync rebuilds the buttons when the transcript's choices changed.
func (c *ChoiceUI) Sync(t *Transcript) {
	if c.version == t.version {
		return
	}
	c.version = t.version
	c.setChoices(t.choices)
}

func (c *ChoiceUI) setChoices(choices []dialogue.Choice) {
	c.panel.RemoveChildren()
	if len(choices) == 0 {
		c.panel.GetWidget().Visibility = widget.Visibility_Hide
		return
	}
	c.panel.GetWidget().Visibility = widget.Visibility_Show

	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	hoverImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})
	btnTextColor := &widget.ButtonTextColor{Idle: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}

	for i, choice := range choices {
		index := i
		btn := widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: hoverImg, Pressed: btnImg}),
			widget.ButtonOpts.Text(choiceLabel(i, choice), &c.face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Stretch: true})),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				c.onSelect(index)
			}),
		)
		c.panel.AddChild(btn)
	}
}

func choiceLabel(i int, c dialogue.Choice) string {
	return fmt.Sprintf("%d. %s", i+1, c.Line.Text)
}
