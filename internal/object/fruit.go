package object

import (
	"github.com/tomz197/fruitcatch/internal/draw"
	"github.com/tomz197/fruitcatch/internal/game"
)

// KindColor is the palette color an item kind is drawn in.
func KindColor(k game.Kind) draw.Color {
	switch k {
	case game.KindCommonFruit:
		return draw.ColorRed
	case game.KindBonusFruit:
		return draw.ColorYellow
	case game.KindHazard:
		return draw.ColorGray
	case game.KindRareFruit:
		return draw.ColorGold
	case game.KindPenalty:
		return draw.ColorBrown
	default:
		return draw.ColorWhite
	}
}

// DrawItem draws a falling item centred on its lane. size is the item's edge length.
func DrawItem(c *draw.Canvas, it game.Item, centerX, size float64) {
	col := KindColor(it.Kind)
	r := size / 2
	cy := it.Y + r

	switch it.Kind {
	case game.KindBonusFruit:
		// Banana: a curved bar.
		c.FillRect(centerX-r, cy-r/4, size, r/2, col)
		c.FillRect(centerX-r, cy-r/2, r/3, r/2, col)
		c.FillRect(centerX+r*2/3, cy-r/2, r/3, r/2, col)
	case game.KindHazard:
		c.FillCircle(centerX, cy+r/6, r*0.8, col)
		c.DrawLine(draw.Point{X: centerX, Y: cy - r*0.6}, draw.Point{X: centerX + r/2, Y: cy - r}, draw.ColorRed)
	case game.KindRareFruit:
		c.FillCircle(centerX, cy, r, col)
		c.SetFloat(centerX-r/3, cy-r/3, draw.ColorWhite)
	case game.KindPenalty:
		c.FillCircle(centerX, cy, r*0.9, col)
		c.SetFloat(centerX+r/4, cy, draw.ColorGreen)
	default:
		c.FillCircle(centerX, cy, r, col)
		c.FillRect(centerX-1, it.Y-r/4, 2, r/2, draw.ColorBrown)
	}
}

// DrawBasket draws the basket. During fever it glows pink; hurt overrides with red.
func DrawBasket(c *draw.Canvas, b game.Basket, centerX float64, fever, hurt bool) {
	rim, body := draw.ColorWhite, draw.ColorBrown
	switch {
	case hurt:
		rim, body = draw.ColorRed, draw.ColorRed
	case fever:
		rim = draw.ColorPink
	}
	left := centerX - b.Width/2
	c.FillRect(left, b.Y, b.Width, b.Height/5, rim)
	c.FillRect(left+b.Width/10, b.Y+b.Height/5, b.Width*0.8, b.Height*4/5, body)
}

// DrawLanes draws faint separators between lanes.
func DrawLanes(c *draw.Canvas, width, height float64, lanes int) {
	if lanes <= 1 {
		return
	}
	laneW := width / float64(lanes)
	for i := 1; i < lanes; i++ {
		x := laneW * float64(i)
		for y := 0.0; y < height; y += 24 {
			c.DrawLine(draw.Point{X: x, Y: y}, draw.Point{X: x, Y: y + 8}, draw.ColorGray)
		}
	}
}
