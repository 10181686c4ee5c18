package systems

import (
	"log"
	"math"
	"math/rand"

	particlePkg "github.com/decker502/particlefield/internal/particle"
	"github.com/decker502/particlefield/pkg/components"
	"github.com/decker502/particlefield/pkg/config"
)

const (
	// AttractionRadius is the pointer distance (px) inside which particles are pulled.
	AttractionRadius = 150.0
	// AttractionStrength scales the normalized attraction force.
	AttractionStrength = 0.01
	// Damping is applied to both velocity components every tick.
	Damping = 0.99

	initialAgeRange = 1000.0
	minMaxAge       = 1000.0
	maxAgeSpread    = 2000.0
	minOpacity      = 0.2
)

// SimulationContext carries the mutable state a simulation tick reads:
// canvas dimensions and the last pointer position. Hosts own one context
// and pass it explicitly into Update and Draw.
type SimulationContext struct {
	Width       float64
	Height      float64
	Pointer     components.PointerState
	Interactive bool
}

// ParticleSystem owns the particle store and advances it one frame at a time.
//
// The store is a fixed-length slice: Init sizes it to the configured particle
// count and nothing else ever changes its length. Expired particles are
// respawned in place, so slot indices are stable for the lifetime of a store.
type ParticleSystem struct {
	particles []components.ParticleComponent

	count    int
	palette  config.Palette
	speed    float64
	sizeMin  float64
	sizeMax  float64
	rng      *rand.Rand
	width    float64
	height   float64
	respawns uint64
}

// NewParticleSystem creates a new ParticleSystem from a field configuration.
// The configuration is read once; callers rebuild the system when it changes.
// An empty palette falls back to opaque white.
func NewParticleSystem(cfg *config.FieldConfig, palette config.Palette, rng *rand.Rand) *ParticleSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if len(palette) == 0 {
		palette = config.Palette{{R: 255, G: 255, B: 255, A: 255}}
	}

	count := cfg.ParticleCount
	if count < 0 {
		count = 0
	}
	sizeMin, sizeMax := cfg.ParticleSizeRange()

	return &ParticleSystem{
		count:   count,
		palette: palette,
		speed:   cfg.SpeedMultiplier(),
		sizeMin: sizeMin,
		sizeMax: sizeMax,
		rng:     rng,
	}
}

// Init fills the store with exactly ParticleCount fresh particles for a
// canvas of the given size. Negative or NaN dimensions are clamped to 0,
// which clusters every particle at the origin.
func (ps *ParticleSystem) Init(width, height float64) {
	ps.width = clampDimension(width)
	ps.height = clampDimension(height)

	if cap(ps.particles) >= ps.count {
		ps.particles = ps.particles[:ps.count]
	} else {
		ps.particles = make([]components.ParticleComponent, ps.count)
	}

	for i := range ps.particles {
		p := &ps.particles[i]
		p.X = ps.rng.Float64() * ps.width
		p.Y = ps.rng.Float64() * ps.height
		p.VelocityX = (ps.rng.Float64() - 0.5) * ps.speed
		p.VelocityY = (ps.rng.Float64() - 0.5) * ps.speed
		p.Size = particlePkg.RandomInRange(ps.rng, ps.sizeMin, ps.sizeMax)
		p.Opacity = minOpacity + ps.rng.Float64()*(1-minOpacity)
		p.Color = ps.palette[ps.rng.Intn(len(ps.palette))]
		p.Age = ps.rng.Float64() * initialAgeRange
		p.MaxAge = minMaxAge + ps.rng.Float64()*maxAgeSpread
	}

	log.Printf("[ParticleSystem] Initialized %d particles on %.0fx%.0f canvas", ps.count, ps.width, ps.height)
}

// Resize re-initializes the store for new canvas dimensions, keeping the
// particle count. It is a no-op when the size did not change.
func (ps *ParticleSystem) Resize(width, height float64) {
	width, height = clampDimension(width), clampDimension(height)
	if width == ps.width && height == ps.height && len(ps.particles) == ps.count {
		return
	}
	ps.Init(width, height)
}

// Particles returns the store. The slice is owned by the system; callers may
// read it between ticks but must not append to it.
func (ps *ParticleSystem) Particles() []components.ParticleComponent {
	return ps.particles
}

// Len returns the number of particle slots.
func (ps *ParticleSystem) Len() int {
	return len(ps.particles)
}

// Size returns the canvas dimensions the store was last initialized for.
func (ps *ParticleSystem) Size() (width, height float64) {
	return ps.width, ps.height
}

// Respawns returns how many in-place respawns happened since creation.
func (ps *ParticleSystem) Respawns() uint64 {
	return ps.respawns
}

// Update advances every particle by one frame.
func (ps *ParticleSystem) Update(ctx *SimulationContext) {
	if ctx == nil {
		return
	}
	for i := range ps.particles {
		if ps.StepParticle(&ps.particles[i], ctx) {
			ps.respawns++
		}
	}
}

// StepParticle applies one frame of motion to a single particle and reports
// whether it was respawned. Steps, in order:
//  1. Integrate position (explicit Euler, one frame per step)
//  2. Pointer attraction when interactive and the pointer is present
//  3. Elastic reflection at the canvas edges, clamping position into range
//  4. Age, respawning in place once Age exceeds MaxAge
//  5. Velocity damping
func (ps *ParticleSystem) StepParticle(p *components.ParticleComponent, ctx *SimulationContext) bool {
	width := clampDimension(ctx.Width)
	height := clampDimension(ctx.Height)

	p.X += p.VelocityX
	p.Y += p.VelocityY

	if ctx.Interactive && ctx.Pointer.Present {
		dx := ctx.Pointer.X - p.X
		dy := ctx.Pointer.Y - p.Y
		distance := math.Hypot(dx, dy)
		if distance < AttractionRadius {
			force := AttractionForce(distance)
			// Zero distance has no direction; the particle is already on the pointer.
			if distance > 0 {
				p.VelocityX += dx / distance * force
				p.VelocityY += dy / distance * force
			}
		}
	}

	if p.X < 0 || p.X > width {
		p.VelocityX = -p.VelocityX
		p.X = clamp(p.X, 0, width)
	}
	if p.Y < 0 || p.Y > height {
		p.VelocityY = -p.VelocityY
		p.Y = clamp(p.Y, 0, height)
	}

	respawned := false
	p.Age++
	if p.Age > p.MaxAge {
		ps.respawn(p, width, height)
		respawned = true
	}

	p.VelocityX *= Damping
	p.VelocityY *= Damping

	return respawned
}

// respawn resets a particle in place with the same distributions Init uses.
// Size, Opacity and MaxAge keep their creation values.
func (ps *ParticleSystem) respawn(p *components.ParticleComponent, width, height float64) {
	p.Age = 0
	p.X = ps.rng.Float64() * width
	p.Y = ps.rng.Float64() * height
	p.VelocityX = (ps.rng.Float64() - 0.5) * ps.speed
	p.VelocityY = (ps.rng.Float64() - 0.5) * ps.speed
	p.Color = ps.palette[ps.rng.Intn(len(ps.palette))]
}

// AttractionForce returns the magnitude of the pointer pull at a distance.
// It is AttractionStrength at distance 0, falls linearly and is 0 at or
// beyond AttractionRadius.
func AttractionForce(distance float64) float64 {
	if math.IsNaN(distance) || distance >= AttractionRadius {
		return 0
	}
	if distance < 0 {
		distance = 0
	}
	return (AttractionRadius - distance) / AttractionRadius * AttractionStrength
}

func clampDimension(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
