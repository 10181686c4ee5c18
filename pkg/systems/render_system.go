package systems

import (
	"image/color"
	"math"

	"github.com/decker502/particlefield/pkg/components"
)

const (
	// ConnectionDistance is the max distance (px) at which two particles are linked.
	ConnectionDistance = 120.0
	// ConnectionMaxAlpha is the line alpha for two coincident particles.
	ConnectionMaxAlpha = 0.3
	// ConnectionWidth is the stroke width of connection lines.
	ConnectionWidth = 0.5
	// GlowScale multiplies the particle size to get the glow radius.
	GlowScale = 2.0
)

// Canvas is the 2D drawing context the renderer draws on.
// Colors are non-premultiplied; A carries the effective opacity.
type Canvas interface {
	// Size returns the drawable area in canvas pixels.
	Size() (width, height float64)
	// Fade blends c over the whole canvas (low alpha leaves motion trails).
	Fade(c color.NRGBA)
	// Glow draws an additive radial glow centred on (x, y).
	Glow(x, y, radius float64, c color.NRGBA)
	// Circle draws a filled circle.
	Circle(x, y, radius float64, c color.NRGBA)
	// Line strokes a line segment.
	Line(x0, y0, x1, y1, width float64, c color.NRGBA)
}

// RenderStats counts what the last Draw call emitted.
type RenderStats struct {
	Circles     int
	Connections int
}

// RenderSystem draws the particle store: a trail fade, proximity
// connections and glowing particles, in that order.
type RenderSystem struct {
	// Background is the fade fill; its alpha sets the trail length.
	Background color.NRGBA
	// Connections enables pairwise proximity lines.
	Connections bool

	stats RenderStats
}

// NewRenderSystem creates a renderer with the given fade fill.
func NewRenderSystem(background color.NRGBA, connections bool) *RenderSystem {
	return &RenderSystem{
		Background:  background,
		Connections: connections,
	}
}

// Stats returns counters for the most recent Draw.
func (s *RenderSystem) Stats() RenderStats {
	return s.stats
}

// Draw renders one frame. A nil canvas means the drawing context is not
// available yet, and Draw does nothing.
func (s *RenderSystem) Draw(canvas Canvas, particles []components.ParticleComponent) {
	s.stats = RenderStats{}
	if canvas == nil {
		return
	}

	canvas.Fade(s.Background)

	if s.Connections {
		s.drawConnections(canvas, particles)
	}

	for i := range particles {
		p := &particles[i]
		c := withAlpha(p.Color, p.Opacity)
		canvas.Glow(p.X, p.Y, p.Size*GlowScale, c)
		canvas.Circle(p.X, p.Y, p.Size, c)
		s.stats.Circles++
	}
}

// drawConnections checks every unordered pair. O(n²) is fine for the
// bounded particle counts a background uses.
func (s *RenderSystem) drawConnections(canvas Canvas, particles []components.ParticleComponent) {
	for i := 0; i < len(particles); i++ {
		a := &particles[i]
		for j := i + 1; j < len(particles); j++ {
			b := &particles[j]
			alpha := ConnectionOpacity(math.Hypot(a.X-b.X, a.Y-b.Y))
			if alpha <= 0 {
				continue
			}
			canvas.Line(a.X, a.Y, b.X, b.Y, ConnectionWidth, withAlpha(a.Color, alpha))
			s.stats.Connections++
		}
	}
}

// ConnectionOpacity returns the line alpha for two particles at distance:
// (1 - distance/120) * 0.3, which is 0 at 120 and beyond and 0.3 at 0.
func ConnectionOpacity(distance float64) float64 {
	if math.IsNaN(distance) || distance >= ConnectionDistance {
		return 0
	}
	if distance < 0 {
		distance = 0
	}
	return (1 - distance/ConnectionDistance) * ConnectionMaxAlpha
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	if alpha < 0 || math.IsNaN(alpha) {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	c.A = uint8(math.Round(alpha * 255))
	return c
}
