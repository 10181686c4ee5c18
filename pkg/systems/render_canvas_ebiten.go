package systems

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// glowSpriteSize is the edge length of the cached radial gradient.
const glowSpriteSize = 64

// EbitenCanvas adapts an *ebiten.Image to the Canvas interface.
//
// Circles and lines go through the vector package. Glows are drawn with a
// cached radial-gradient sprite using additive blending, which approximates
// a shadow blur of the same radius.
type EbitenCanvas struct {
	dst  *ebiten.Image
	glow *ebiten.Image
}

// NewEbitenCanvas creates a canvas with no target. Draw calls are dropped
// until SetTarget is called.
func NewEbitenCanvas() *EbitenCanvas {
	return &EbitenCanvas{}
}

// SetTarget sets the image subsequent draw calls render to.
func (c *EbitenCanvas) SetTarget(dst *ebiten.Image) {
	c.dst = dst
}

// Size returns the target bounds in pixels.
func (c *EbitenCanvas) Size() (width, height float64) {
	if c.dst == nil {
		return 0, 0
	}
	b := c.dst.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Fade draws a translucent rectangle over the whole target.
func (c *EbitenCanvas) Fade(clr color.NRGBA) {
	if c.dst == nil || clr.A == 0 {
		return
	}
	w, h := c.Size()
	vector.DrawFilledRect(c.dst, 0, 0, float32(w), float32(h), clr, false)
}

// Glow draws the gradient sprite scaled to radius with additive blending.
func (c *EbitenCanvas) Glow(x, y, radius float64, clr color.NRGBA) {
	if c.dst == nil || radius <= 0 || clr.A == 0 {
		return
	}
	sprite := c.glowSprite()

	half := float64(glowSpriteSize) / 2
	scale := radius / half

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-half, -half)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.Blend = ebiten.BlendLighter
	op.Filter = ebiten.FilterLinear
	c.dst.DrawImage(sprite, op)
}

// Circle draws an anti-aliased filled circle.
func (c *EbitenCanvas) Circle(x, y, radius float64, clr color.NRGBA) {
	if c.dst == nil || radius <= 0 {
		return
	}
	vector.DrawFilledCircle(c.dst, float32(x), float32(y), float32(radius), clr, true)
}

// Line strokes an anti-aliased segment.
func (c *EbitenCanvas) Line(x0, y0, x1, y1, width float64, clr color.NRGBA) {
	if c.dst == nil {
		return
	}
	vector.StrokeLine(c.dst, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), clr, true)
}

// glowSprite lazily builds a white radial gradient with quadratic falloff.
func (c *EbitenCanvas) glowSprite() *ebiten.Image {
	if c.glow != nil {
		return c.glow
	}
	c.glow = ebiten.NewImageFromImage(GlowGradient(glowSpriteSize))
	return c.glow
}

// GlowGradient builds a size×size premultiplied white gradient: opaque at
// the centre, transparent at the inscribed circle's edge.
func GlowGradient(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-r, float64(y)+0.5-r) / r
			if d >= 1 {
				continue
			}
			a := uint8(math.Round((1 - d) * (1 - d) * 255))
			img.SetRGBA(x, y, color.RGBA{R: a, G: a, B: a, A: a})
		}
	}
	return img
}
