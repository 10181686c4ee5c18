// Package app 提供粒子场桌面应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来：main.go 解析命令行参数后调用 NewApp()，
// App 实现 ebiten.Game 接口，每个 tick 推进一次模拟并绘制到屏幕。
package app

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/decker502/particlefield/pkg/config"
	"github.com/decker502/particlefield/pkg/game"
	"github.com/decker502/particlefield/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Debug 在左上角显示粒子数、连线数和 TPS
	Debug bool
	// Field 基础粒子场配置（默认值或配置文件），为 nil 时使用默认值
	Field *config.FieldConfig
	// Storage gdata 存储，为 nil 时设置只保存在内存中
	Storage *gdata.Manager
	// Count 覆盖粒子数量，负数表示不覆盖
	Count int
	// Seed 覆盖随机种子，0 表示不覆盖
	Seed int64
	// Width/Height 初始画布尺寸（逻辑像素）
	Width  int
	Height int
}

// App 是粒子场应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	settings *game.SettingsManager
	inputs   *game.Inputs
	canvas   *systems.EbitenCanvas
	renderer *systems.RenderSystem
	system   *systems.ParticleSystem
	loop     *game.FrameLoop
	seed     int64

	width  int
	height int
	paused bool
	debug  bool

	touchIDs []ebiten.TouchID
}

// NewApp 创建并初始化粒子场应用
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	settings, err := game.NewSettingsManager(cfg.Storage, cfg.Field)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings manager: %w", err)
	}

	// 命令行参数优先于保存的设置，只在本次运行生效，不会被持久化
	if cfg.Count >= 0 || cfg.Seed != 0 {
		err := settings.Update(func(fc *config.FieldConfig) {
			if cfg.Count >= 0 {
				fc.ParticleCount = cfg.Count
			}
			if cfg.Seed != 0 {
				fc.Seed = cfg.Seed
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	field := settings.GetConfig()
	seed := field.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	a := &App{
		settings: settings,
		inputs:   game.NewInputs(),
		canvas:   systems.NewEbitenCanvas(),
		seed:     seed,
		width:    width,
		height:   height,
		debug:    cfg.Debug,
	}
	if err := a.rebuild(); err != nil {
		return nil, err
	}

	fps := field.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ebiten.SetTPS(fps)
	// 保留上一帧内容，淡出填充形成拖尾
	ebiten.SetScreenClearedEveryFrame(false)

	log.Printf("[App] Particle field ready: %d particles, speed=%s, size=%s, seed=%d",
		field.ParticleCount, field.Speed, field.Size, seed)
	return a, nil
}

// rebuild 按当前设置重新创建粒子存储、渲染器和帧循环
//
// 速度档位只影响初始速度，切换档位时整个存储会重新初始化。
func (a *App) rebuild() error {
	field := a.settings.GetConfig().Clone()
	field.Normalize()

	palette, err := field.Palette()
	if err != nil {
		return fmt.Errorf("failed to parse palette: %w", err)
	}

	a.system = systems.NewParticleSystem(field, palette, rand.New(rand.NewSource(a.seed)))
	a.system.Init(float64(a.width), float64(a.height))
	a.renderer = systems.NewRenderSystem(field.BackgroundColor(), field.Connections)
	a.loop = game.NewFrameLoop(a.system, a.renderer, a.canvas, a.inputs, field.Interactive, 0)
	return nil
}

// Update 更新模拟
// 每个 tick 调用一次（TPS 由 NewApp 设置为配置的 fps）
func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		a.saveSettings()
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		a.ToggleConnections()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		a.ToggleInteractive()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := a.CycleSpeed(); err != nil {
			return err
		}
	}

	a.touchIDs = ebiten.AppendTouchIDs(a.touchIDs[:0])
	if len(a.touchIDs) > 0 {
		// 移动端使用第一个触点
		x, y := ebiten.TouchPosition(a.touchIDs[0])
		a.UpdatePointer(float64(x), float64(y))
	} else {
		x, y := ebiten.CursorPosition()
		a.UpdatePointer(float64(x), float64(y))
	}

	if !a.paused {
		a.loop.Step()
	}
	return nil
}

// Draw 绘制粒子场
// 屏幕不会每帧清空，淡出填充留下运动轨迹
func (a *App) Draw(screen *ebiten.Image) {
	if a.paused {
		return
	}

	a.canvas.SetTarget(screen)
	a.loop.Render()

	if a.debug {
		stats := a.renderer.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("particles: %d  links: %d  respawns: %d  TPS: %.0f",
			stats.Circles, stats.Connections, a.system.Respawns(), ebiten.ActualTPS()))
	}
}

// Layout 返回画布的像素尺寸
//
// 画布按设备像素比放大，保证高分屏上粒子清晰；尺寸变化时下一帧重建存储。
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	a.Resize(int(math.Ceil(float64(outsideWidth)*scale)), int(math.Ceil(float64(outsideHeight)*scale)))
	return a.width, a.height
}

// Resize 记录新的画布尺寸，与当前尺寸相同时忽略
func (a *App) Resize(width, height int) {
	if width == a.width && height == a.height {
		return
	}
	a.width, a.height = width, height
	a.inputs.SetSize(float64(width), float64(height))
	log.Printf("[App] Canvas resized to %dx%d", width, height)
}

// UpdatePointer 更新指针位置，指针在画布外或交互关闭时视为不存在
func (a *App) UpdatePointer(x, y float64) {
	inside := x >= 0 && y >= 0 && x < float64(a.width) && y < float64(a.height)
	if !inside || !a.loop.Context().Interactive {
		a.inputs.ClearPointer()
		return
	}
	a.inputs.SetPointer(x, y)
}

// TogglePause 暂停/恢复模拟
func (a *App) TogglePause() {
	a.paused = !a.paused
	log.Printf("[App] Paused: %v", a.paused)
}

// ToggleConnections 切换粒子连线并保存设置
func (a *App) ToggleConnections() {
	enabled := !a.renderer.Connections
	a.renderer.Connections = enabled
	a.settings.SetConnections(enabled)
	a.saveSettings()
	log.Printf("[App] Connections: %v", enabled)
}

// ToggleInteractive 切换指针吸引并保存设置
func (a *App) ToggleInteractive() {
	enabled := !a.loop.Context().Interactive
	a.loop.SetInteractive(enabled)
	a.settings.SetInteractive(enabled)
	a.saveSettings()
	log.Printf("[App] Interactive: %v", enabled)
}

// CycleSpeed 切换到下一个速度档位，重建粒子存储并保存设置
func (a *App) CycleSpeed() error {
	next := config.NextSpeed(a.settings.GetConfig().Speed)
	a.settings.SetSpeed(next)
	if err := a.rebuild(); err != nil {
		return err
	}
	a.saveSettings()
	log.Printf("[App] Speed: %s", next)
	return nil
}

// Paused 返回是否暂停
func (a *App) Paused() bool {
	return a.paused
}

// Settings 返回设置管理器
// 用于在应用关闭时保存设置
func (a *App) Settings() *game.SettingsManager {
	return a.settings
}

// Loop 返回帧循环
func (a *App) Loop() *game.FrameLoop {
	return a.loop
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}
}
