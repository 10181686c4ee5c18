package game

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decker502/particlefield/pkg/components"
	"github.com/decker502/particlefield/pkg/systems"
)

// DefaultFrameInterval is one display refresh at 60Hz.
const DefaultFrameInterval = time.Second / 60

// Inputs collects pointer and canvas-size updates from event sources.
// Writers may run on any goroutine; the frame loop reads a snapshot once per
// tick, so the last write before a tick wins and earlier ones are dropped.
type Inputs struct {
	mu      sync.Mutex
	pointer components.PointerState
	width   float64
	height  float64
	resized bool
}

// NewInputs creates an input buffer with no pointer and no pending resize.
func NewInputs() *Inputs {
	return &Inputs{}
}

// SetPointer records the latest pointer position in canvas pixels.
func (in *Inputs) SetPointer(x, y float64) {
	in.mu.Lock()
	in.pointer = components.PointerState{X: x, Y: y, Present: true}
	in.mu.Unlock()
}

// ClearPointer marks the pointer as gone (left the canvas).
func (in *Inputs) ClearPointer() {
	in.mu.Lock()
	in.pointer.Present = false
	in.mu.Unlock()
}

// SetSize records new canvas dimensions; the next tick resizes the store.
func (in *Inputs) SetSize(width, height float64) {
	in.mu.Lock()
	in.width, in.height = width, height
	in.resized = true
	in.mu.Unlock()
}

// snapshot returns the current pointer and consumes a pending resize.
func (in *Inputs) snapshot() (pointer components.PointerState, width, height float64, resized bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	pointer = in.pointer
	width, height, resized = in.width, in.height, in.resized
	in.resized = false
	return pointer, width, height, resized
}

// FrameLoop drives the particle field at a fixed frame interval.
//
// Each tick applies pending inputs, advances the simulation one step and
// renders. Run blocks until its context is cancelled; Start/Stop wrap Run in
// a goroutine whose lifetime matches the host (mount/unmount). Stop cancels
// the loop, stops its ticker and waits for the goroutine to exit.
type FrameLoop struct {
	system   *systems.ParticleSystem
	renderer *systems.RenderSystem
	canvas   systems.Canvas
	inputs   *Inputs
	interval time.Duration

	// OnFrame runs after every rendered frame, e.g. to present a screen buffer.
	// Set it before Start.
	OnFrame func()

	simCtx systems.SimulationContext
	frames atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewFrameLoop creates a loop over an initialized particle system.
// A zero interval uses DefaultFrameInterval. canvas may be nil, in which case
// the simulation still advances but nothing is drawn.
func NewFrameLoop(sys *systems.ParticleSystem, renderer *systems.RenderSystem, canvas systems.Canvas, inputs *Inputs, interactive bool, interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if inputs == nil {
		inputs = NewInputs()
	}

	width, height := sys.Size()
	return &FrameLoop{
		system:   sys,
		renderer: renderer,
		canvas:   canvas,
		inputs:   inputs,
		interval: interval,
		simCtx: systems.SimulationContext{
			Width:       width,
			Height:      height,
			Interactive: interactive,
		},
	}
}

// Context returns the simulation context used by the last step.
func (l *FrameLoop) Context() systems.SimulationContext {
	return l.simCtx
}

// Inputs returns the buffer event sources write pointer and size updates to.
func (l *FrameLoop) Inputs() *Inputs {
	return l.inputs
}

// SetInteractive toggles pointer attraction. Call it from the goroutine that
// ticks the loop (the ebiten host ticks from Update).
func (l *FrameLoop) SetInteractive(interactive bool) {
	l.simCtx.Interactive = interactive
}

// Frames returns the number of simulation steps taken, whether driven by
// Run/Advance or by a host calling Step directly.
func (l *FrameLoop) Frames() uint64 {
	return l.frames.Load()
}

// Step applies pending inputs and advances the simulation by one frame.
func (l *FrameLoop) Step() {
	pointer, width, height, resized := l.inputs.snapshot()
	if resized {
		l.system.Resize(width, height)
		l.simCtx.Width, l.simCtx.Height = l.system.Size()
	}
	l.simCtx.Pointer = pointer
	l.system.Update(&l.simCtx)
	l.frames.Add(1)
}

// Render draws the current store and runs OnFrame.
func (l *FrameLoop) Render() {
	if l.renderer != nil {
		l.renderer.Draw(l.canvas, l.system.Particles())
	}
	if l.OnFrame != nil {
		l.OnFrame()
	}
}

// Tick runs one full frame: Step then Render.
func (l *FrameLoop) Tick() {
	l.Step()
	l.Render()
}

// Advance runs n ticks synchronously without waiting for the interval.
func (l *FrameLoop) Advance(n int) {
	for i := 0; i < n; i++ {
		l.Tick()
	}
}

// Run ticks every interval until ctx is cancelled. Cancellation is the
// normal way to stop, so Run returns nil in that case.
func (l *FrameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("[FrameLoop] Started (interval=%v, particles=%d)", l.interval, l.system.Len())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[FrameLoop] Stopped after %d frames", l.Frames())
			return nil
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Start runs the loop on its own goroutine. Calling Start twice is a no-op.
func (l *FrameLoop) Start(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_ = l.Run(runCtx)
	}()
}

// Stop cancels the loop and waits for it to exit. Safe to call more than once
// and before Start; a stopped loop may be started again.
func (l *FrameLoop) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	cancel()
	l.wg.Wait()
}
