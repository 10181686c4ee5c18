// Package main runs the particle field in a terminal using tcell.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	--config <path>   Field config YAML (e.g. --config=data/field.yaml)
//	--count <n>       Override particle count
//	--seed <n>        Override random seed (0 = time based)
//	--verbose         Enable verbose logging (written to stderr after exit)
//
// Controls:
//
//	Mouse move        - Attract particles (when interactive)
//	Q/Escape/Ctrl-C   - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decker502/particlefield/pkg/config"
	"github.com/decker502/particlefield/pkg/game"
	"github.com/decker502/particlefield/pkg/systems"
	"github.com/decker502/particlefield/pkg/terminal"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag  = flag.String("config", "", "Path to a field config YAML")
	countFlag   = flag.Int("count", -1, "Override particle count (-1 keeps the config value)")
	seedFlag    = flag.Int64("seed", 0, "Override random seed (0 keeps the config value)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()

	// tcell 占用终端，日志默认丢弃
	if !*verboseFlag {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	field, err := loadField(*configFlag, *countFlag, *seedFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, field); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run: %v\n", err)
		os.Exit(1)
	}
}

// loadField loads the base config and applies command line overrides.
func loadField(path string, count int, seed int64) (*config.FieldConfig, error) {
	field := config.DefaultFieldConfig()
	if path != "" {
		loaded, err := config.LoadFieldConfig(path)
		if err != nil {
			return nil, err
		}
		field = loaded
	}
	if count >= 0 {
		field.ParticleCount = count
	}
	if seed != 0 {
		field.Seed = seed
	}
	field.Normalize()
	return field, nil
}

// run owns the screen for the lifetime of ctx. The frame loop and the event
// pump run in one errgroup; quitting from the keyboard cancels both.
func run(ctx context.Context, field *config.FieldConfig) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	cols, rows := screen.Size()
	canvas := terminal.NewCanvas(cols, rows)

	loop, err := newLoop(field, canvas, screen)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 100)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		screen.ChannelEvents(events, gctx.Done())
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if handleEvent(ev, screen, canvas, loop) {
					log.Printf("[Main] Quit requested")
					cancel()
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// newLoop builds the store, renderer and frame loop for a terminal canvas.
func newLoop(field *config.FieldConfig, canvas *terminal.Canvas, screen tcell.Screen) (*game.FrameLoop, error) {
	palette, err := field.Palette()
	if err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}

	seed := field.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sys := systems.NewParticleSystem(field, palette, rand.New(rand.NewSource(seed)))
	sys.Init(canvas.Size())

	renderer := systems.NewRenderSystem(field.BackgroundColor(), field.Connections)
	interval := time.Second / time.Duration(field.FPS)
	loop := game.NewFrameLoop(sys, renderer, canvas, game.NewInputs(), field.Interactive, interval)
	loop.OnFrame = func() {
		canvas.Present(screen)
		screen.Show()
	}
	return loop, nil
}

// handleEvent feeds one terminal event into the loop inputs. It returns true
// when the user asked to quit.
func handleEvent(ev tcell.Event, screen tcell.Screen, canvas *terminal.Canvas, loop *game.FrameLoop) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true
		}
		if ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q') {
			return true
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		loop.Inputs().SetPointer(terminal.CellCenter(col, row))

	case *tcell.EventResize:
		cols, rows := ev.Size()
		canvas.Resize(cols, rows)
		loop.Inputs().SetSize(terminal.PixelSize(cols, rows))
		screen.Sync()
	}
	return false
}
