package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/decker502/particlefield/pkg/components"
	"github.com/decker502/particlefield/pkg/config"
	"github.com/google/go-cmp/cmp"
)

// newTestSystem creates a deterministic particle system with count particles.
func newTestSystem(t *testing.T, count int, seed int64) *ParticleSystem {
	t.Helper()
	cfg := config.DefaultFieldConfig()
	cfg.ParticleCount = count
	palette, err := cfg.Palette()
	if err != nil {
		t.Fatalf("Palette() error: %v", err)
	}
	return NewParticleSystem(cfg, palette, rand.New(rand.NewSource(seed)))
}

// TestParticleSystem_InitStoreSize tests that Init creates exactly ParticleCount slots
func TestParticleSystem_InitStoreSize(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"typical", 120, 120},
		{"single", 1, 1},
		{"empty", 0, 0},
		{"negative clamps to zero", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := newTestSystem(t, tt.count, 1)
			ps.Init(800, 600)
			if ps.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", ps.Len(), tt.want)
			}
		})
	}
}

// TestParticleSystem_InitDistributions tests the ranges of every initialized field
func TestParticleSystem_InitDistributions(t *testing.T) {
	cfg := config.DefaultFieldConfig()
	cfg.ParticleCount = 500
	cfg.Speed = config.SpeedFast
	cfg.Size = config.SizeLarge
	palette, _ := cfg.Palette()
	ps := NewParticleSystem(cfg, palette, rand.New(rand.NewSource(3)))
	ps.Init(640, 480)

	inPalette := func(p components.ParticleComponent) bool {
		for _, c := range palette {
			if c == p.Color {
				return true
			}
		}
		return false
	}

	for i, p := range ps.Particles() {
		if p.X < 0 || p.X >= 640 || p.Y < 0 || p.Y >= 480 {
			t.Errorf("particle %d position (%v, %v) outside [0,640)x[0,480)", i, p.X, p.Y)
		}
		// fast = 2x multiplier → [-1, 1]
		if math.Abs(p.VelocityX) > 1 || math.Abs(p.VelocityY) > 1 {
			t.Errorf("particle %d velocity (%v, %v) outside [-1, 1]", i, p.VelocityX, p.VelocityY)
		}
		if p.Size < 2 || p.Size > 5 {
			t.Errorf("particle %d size %v outside [2, 5]", i, p.Size)
		}
		if p.Opacity < 0.2 || p.Opacity > 1 {
			t.Errorf("particle %d opacity %v outside [0.2, 1]", i, p.Opacity)
		}
		if p.Age < 0 || p.Age >= 1000 {
			t.Errorf("particle %d age %v outside [0, 1000)", i, p.Age)
		}
		if p.MaxAge < 1000 || p.MaxAge >= 3000 {
			t.Errorf("particle %d maxAge %v outside [1000, 3000)", i, p.MaxAge)
		}
		if !inPalette(p) {
			t.Errorf("particle %d color %v not in palette", i, p.Color)
		}
	}
}

// TestParticleSystem_InitIdempotent tests that the same inputs and seed yield identical stores
func TestParticleSystem_InitIdempotent(t *testing.T) {
	a := newTestSystem(t, 100, 42)
	b := newTestSystem(t, 100, 42)
	a.Init(1024, 768)
	b.Init(1024, 768)

	if diff := cmp.Diff(a.Particles(), b.Particles()); diff != "" {
		t.Errorf("stores differ for the same seed (-a +b):\n%s", diff)
	}

	c := newTestSystem(t, 100, 43)
	c.Init(1024, 768)
	if cmp.Equal(a.Particles(), c.Particles()) {
		t.Error("stores for different seeds should differ")
	}
}

// TestParticleSystem_Invariants runs a long simulation and checks store size,
// boundary containment and the age bound after every tick
func TestParticleSystem_Invariants(t *testing.T) {
	const width, height = 300.0, 200.0
	cfg := config.DefaultFieldConfig()
	cfg.ParticleCount = 60
	cfg.Speed = config.SpeedFast
	palette, _ := cfg.Palette()
	ps := NewParticleSystem(cfg, palette, rand.New(rand.NewSource(9)))
	ps.Init(width, height)

	ctx := &SimulationContext{
		Width:       width,
		Height:      height,
		Interactive: true,
	}

	for tick := 0; tick < 4000; tick++ {
		// Sweep the pointer around so attraction keeps injecting energy
		ctx.Pointer = components.PointerState{
			X:       float64(tick%int(width+40)) - 20,
			Y:       float64((tick*3)%int(height+40)) - 20,
			Present: tick%500 < 400,
		}
		ps.Update(ctx)

		if ps.Len() != 60 {
			t.Fatalf("tick %d: Len() = %d, want 60", tick, ps.Len())
		}
		for i, p := range ps.Particles() {
			if p.X < 0 || p.X > width || p.Y < 0 || p.Y > height {
				t.Fatalf("tick %d: particle %d escaped to (%v, %v)", tick, i, p.X, p.Y)
			}
			if p.Age > p.MaxAge {
				t.Fatalf("tick %d: particle %d age %v exceeds maxAge %v", tick, i, p.Age, p.MaxAge)
			}
			if math.IsNaN(p.VelocityX) || math.IsNaN(p.VelocityY) {
				t.Fatalf("tick %d: particle %d has NaN velocity", tick, i)
			}
		}
	}

	if ps.Respawns() == 0 {
		t.Error("expected at least one respawn over 4000 ticks")
	}
}

// TestParticleSystem_DampingConvergence tests that velocity decays by 0.99 per step
func TestParticleSystem_DampingConvergence(t *testing.T) {
	ps := newTestSystem(t, 0, 1)
	ctx := &SimulationContext{Width: 1e6, Height: 1e6}
	p := &components.ParticleComponent{
		X: 5e5, Y: 5e5,
		VelocityX: 10, VelocityY: 10,
		MaxAge: 1e9,
	}

	prev := math.Hypot(p.VelocityX, p.VelocityY)
	for i := 0; i < 500; i++ {
		ps.StepParticle(p, ctx)
		cur := math.Hypot(p.VelocityX, p.VelocityY)
		if cur >= prev {
			t.Fatalf("step %d: |v| did not decrease (%v → %v)", i, prev, cur)
		}
		prev = cur
	}

	bound := 10*math.Pow(0.99, 500) + 1e-9
	if math.Abs(p.VelocityX) > bound || math.Abs(p.VelocityY) > bound {
		t.Errorf("velocity after 500 steps = (%v, %v), want each component <= %v", p.VelocityX, p.VelocityY, bound)
	}
}

// TestParticleSystem_Reflection tests elastic reflection at each edge
func TestParticleSystem_Reflection(t *testing.T) {
	const width, height = 100.0, 80.0
	tests := []struct {
		name   string
		p      components.ParticleComponent
		wantVX func(float64) bool
		wantVY func(float64) bool
	}{
		{
			name:   "right edge",
			p:      components.ParticleComponent{X: width - 0.5, Y: 40, VelocityX: 5},
			wantVX: func(v float64) bool { return v < 0 },
		},
		{
			name:   "left edge",
			p:      components.ParticleComponent{X: 0.5, Y: 40, VelocityX: -5},
			wantVX: func(v float64) bool { return v > 0 },
		},
		{
			name:   "bottom edge",
			p:      components.ParticleComponent{X: 50, Y: height - 1, VelocityY: 3},
			wantVY: func(v float64) bool { return v < 0 },
		},
		{
			name:   "top edge",
			p:      components.ParticleComponent{X: 50, Y: 1, VelocityY: -3},
			wantVY: func(v float64) bool { return v > 0 },
		},
	}

	ps := newTestSystem(t, 0, 1)
	ctx := &SimulationContext{Width: width, Height: height}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p.MaxAge = 1e9
			ps.StepParticle(&p, ctx)

			if tt.wantVX != nil && !tt.wantVX(p.VelocityX) {
				t.Errorf("VelocityX = %v after reflection", p.VelocityX)
			}
			if tt.wantVY != nil && !tt.wantVY(p.VelocityY) {
				t.Errorf("VelocityY = %v after reflection", p.VelocityY)
			}
			if p.X < 0 || p.X > width || p.Y < 0 || p.Y > height {
				t.Errorf("position (%v, %v) not clamped into canvas", p.X, p.Y)
			}
		})
	}
}

// TestParticleSystem_RespawnWindow tests that age=999, maxAge=1000 respawns on the second step
func TestParticleSystem_RespawnWindow(t *testing.T) {
	ps := newTestSystem(t, 0, 5)
	ctx := &SimulationContext{Width: 400, Height: 300}
	p := &components.ParticleComponent{
		X: 10, Y: 10,
		Size: 2, Opacity: 0.5,
		Age: 999, MaxAge: 1000,
	}

	if ps.StepParticle(p, ctx) {
		t.Fatal("particle respawned on first step, want age 1000 kept")
	}
	if p.Age != 1000 {
		t.Fatalf("age after first step = %v, want 1000", p.Age)
	}

	if !ps.StepParticle(p, ctx) {
		t.Fatal("particle did not respawn on second step")
	}
	if p.Age != 0 {
		t.Errorf("age after respawn = %v, want 0", p.Age)
	}
	if p.Size != 2 || p.Opacity != 0.5 || p.MaxAge != 1000 {
		t.Errorf("respawn changed fixed attributes: size=%v opacity=%v maxAge=%v", p.Size, p.Opacity, p.MaxAge)
	}
	if p.X < 0 || p.X > 400 || p.Y < 0 || p.Y > 300 {
		t.Errorf("respawn position (%v, %v) outside canvas", p.X, p.Y)
	}
}

// TestParticleSystem_Attraction tests the pointer force inside and outside the radius
func TestParticleSystem_Attraction(t *testing.T) {
	ps := newTestSystem(t, 0, 1)

	t.Run("inside radius", func(t *testing.T) {
		p := &components.ParticleComponent{X: 50, Y: 50, MaxAge: 1e9}
		ctx := &SimulationContext{
			Width: 500, Height: 500, Interactive: true,
			Pointer: components.PointerState{X: 100, Y: 50, Present: true},
		}
		ps.StepParticle(p, ctx)

		want := AttractionForce(50) * Damping
		if math.Abs(p.VelocityX-want) > 1e-12 {
			t.Errorf("VelocityX = %v, want %v", p.VelocityX, want)
		}
		if p.VelocityY != 0 {
			t.Errorf("VelocityY = %v, want 0", p.VelocityY)
		}
	})

	t.Run("outside radius", func(t *testing.T) {
		p := &components.ParticleComponent{X: 50, Y: 50, MaxAge: 1e9}
		ctx := &SimulationContext{
			Width: 500, Height: 500, Interactive: true,
			Pointer: components.PointerState{X: 250, Y: 50, Present: true},
		}
		ps.StepParticle(p, ctx)
		if p.VelocityX != 0 || p.VelocityY != 0 {
			t.Errorf("velocity = (%v, %v), want no force beyond %v px", p.VelocityX, p.VelocityY, AttractionRadius)
		}
	})

	t.Run("not interactive", func(t *testing.T) {
		p := &components.ParticleComponent{X: 50, Y: 50, MaxAge: 1e9}
		ctx := &SimulationContext{
			Width: 500, Height: 500, Interactive: false,
			Pointer: components.PointerState{X: 60, Y: 50, Present: true},
		}
		ps.StepParticle(p, ctx)
		if p.VelocityX != 0 {
			t.Errorf("VelocityX = %v, want 0 when interactivity is off", p.VelocityX)
		}
	})

	t.Run("pointer absent", func(t *testing.T) {
		p := &components.ParticleComponent{X: 50, Y: 50, MaxAge: 1e9}
		ctx := &SimulationContext{
			Width: 500, Height: 500, Interactive: true,
			Pointer: components.PointerState{X: 60, Y: 50},
		}
		ps.StepParticle(p, ctx)
		if p.VelocityX != 0 {
			t.Errorf("VelocityX = %v, want 0 without a pointer", p.VelocityX)
		}
	})
}

// TestParticleSystem_ZeroDistanceGuard tests that a particle on the pointer never gets NaN velocity
func TestParticleSystem_ZeroDistanceGuard(t *testing.T) {
	ps := newTestSystem(t, 0, 1)
	p := &components.ParticleComponent{X: 80, Y: 80, MaxAge: 1e9}
	ctx := &SimulationContext{
		Width: 200, Height: 200, Interactive: true,
		Pointer: components.PointerState{X: 80, Y: 80, Present: true},
	}

	ps.StepParticle(p, ctx)

	if math.IsNaN(p.VelocityX) || math.IsNaN(p.VelocityY) || math.IsInf(p.VelocityX, 0) || math.IsInf(p.VelocityY, 0) {
		t.Fatalf("velocity = (%v, %v), want finite", p.VelocityX, p.VelocityY)
	}
	if got := AttractionForce(0); got != AttractionStrength {
		t.Errorf("AttractionForce(0) = %v, want max %v", got, AttractionStrength)
	}
}

// TestAttractionForce tests the force curve
func TestAttractionForce(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 0.01},
		{-5, 0.01},
		{75, 0.005},
		{150, 0},
		{300, 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := AttractionForce(tt.distance); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("AttractionForce(%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}

// TestParticleSystem_ZeroSizeCanvas tests that a zero canvas clusters particles at the origin
func TestParticleSystem_ZeroSizeCanvas(t *testing.T) {
	ps := newTestSystem(t, 20, 11)
	ps.Init(0, 0)

	ctx := &SimulationContext{}
	for i := 0; i < 10; i++ {
		ps.Update(ctx)
	}

	for i, p := range ps.Particles() {
		if p.X != 0 || p.Y != 0 {
			t.Errorf("particle %d at (%v, %v), want origin", i, p.X, p.Y)
		}
	}

	ps.Init(-10, math.NaN())
	if w, h := ps.Size(); w != 0 || h != 0 {
		t.Errorf("Size() = (%v, %v), want clamped to (0, 0)", w, h)
	}
}

// TestParticleSystem_Resize tests that resize keeps the count and re-bounds particles
func TestParticleSystem_Resize(t *testing.T) {
	ps := newTestSystem(t, 40, 2)
	ps.Init(800, 600)

	before := append([]components.ParticleComponent(nil), ps.Particles()...)
	ps.Resize(800, 600)
	if diff := cmp.Diff(before, ps.Particles()); diff != "" {
		t.Errorf("Resize to the same size should not reinitialize (-before +after):\n%s", diff)
	}

	ps.Resize(100, 50)
	if ps.Len() != 40 {
		t.Fatalf("Len() after resize = %d, want 40", ps.Len())
	}
	for i, p := range ps.Particles() {
		if p.X > 100 || p.Y > 50 {
			t.Errorf("particle %d at (%v, %v) outside resized canvas", i, p.X, p.Y)
		}
	}

	// Nil contexts are ignored
	ps.Update(nil)
}

// TestParticleSystem_NonFiniteSizeRange tests that a NaN or infinite size
// override falls back to the tier range instead of producing NaN radii
func TestParticleSystem_NonFiniteSizeRange(t *testing.T) {
	for _, sizeRange := range []string{"[1 NaN]", "[1 Inf]"} {
		cfg := config.DefaultFieldConfig()
		cfg.ParticleCount = 50
		cfg.SizeRange = sizeRange
		palette, err := cfg.Palette()
		if err != nil {
			t.Fatalf("Palette() error: %v", err)
		}

		ps := NewParticleSystem(cfg, palette, rand.New(rand.NewSource(1)))
		ps.Init(800, 600)

		min, max := config.SizeBounds(config.SizeMedium)
		for i, p := range ps.Particles() {
			if math.IsNaN(p.Size) || math.IsInf(p.Size, 0) || p.Size < min || p.Size > max {
				t.Fatalf("%s: particle %d Size = %v, want within [%v, %v]", sizeRange, i, p.Size, min, max)
			}
		}
	}
}
