package object

import (
	"github.com/tomz197/fruitcatch/internal/draw"
)

// Text is a static label at a 1-based terminal position inside the play field.
type Text struct {
	X     int
	Y     int
	Value string
}

// Draw writes the text at its position.
func (t Text) Draw(ctx DrawContext) error {
	if t.Value == "" {
		return nil
	}
	x, y := max(t.X, 1), max(t.Y, 1)
	ctx.Writer.WriteAt(x, y, t.Value)
	return nil
}

// Update is a no-op for static text.
func (t Text) Update(UpdateContext) (bool, error) {
	return false, nil
}

// Popup is a floating label such as "+300" that rises from a catch and fades.
type Popup struct {
	X, Y     float64 // Engine coordinates
	Value    string
	Color    draw.Color
	Rise     float64 // Units per second
	Lifetime float64 // Seconds remaining
}

// NewPopup creates a popup at an engine position.
func NewPopup(x, y float64, value string, col draw.Color, rise, lifetime float64) *Popup {
	return &Popup{X: x, Y: y, Value: value, Color: col, Rise: rise, Lifetime: lifetime}
}

// Update raises the popup and expires it.
func (p *Popup) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()
	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true, nil
	}
	p.Y -= p.Rise * dt
	return false, nil
}

// Draw writes the label centred on its position.
func (p *Popup) Draw(ctx DrawContext) error {
	col, row := ctx.Canvas.LogicalToTerminal(p.X, p.Y)
	col -= len(p.Value) / 2
	if row < 1 || row > ctx.Canvas.TerminalHeight() || col < 1 || col+len(p.Value) > ctx.Canvas.TerminalWidth() {
		return nil
	}
	ctx.Writer.WriteAt(col, row, draw.Foreground(p.Color)+p.Value+draw.ColorReset)
	return nil
}
