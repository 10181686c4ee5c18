package components

import "image/color"

// ParticleComponent represents a single particle slot in the particle field.
// It stores all the runtime state for one particle: position, velocity,
// visual properties and age.
//
// Slots are created once when the store is initialized and are never removed
// individually. When Age exceeds MaxAge the ParticleSystem respawns the slot
// in place by overwriting Age, position, velocity and Color.
//
// This is a pure data component following ECS principles - it contains no methods.
type ParticleComponent struct {
	// Position (画布坐标, 像素), bounded to [0, width] x [0, height]
	X float64
	Y float64

	// Velocity (像素/帧), damped by 0.99 every tick
	VelocityX float64
	VelocityY float64

	// Size is the circle radius in pixels, fixed at creation
	Size float64

	// Opacity in [0.2, 1.0], fixed at creation
	Opacity float64

	// Color is sampled from the palette, changes only on respawn
	Color color.NRGBA

	// Lifecycle (生命周期, 帧)
	Age    float64
	MaxAge float64
}

// PointerState is the last known pointer position in canvas pixels.
// Present is false when the pointer has left the canvas or was never seen.
type PointerState struct {
	X       float64
	Y       float64
	Present bool
}
