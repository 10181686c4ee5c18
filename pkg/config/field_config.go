package config

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/decker502/particlefield/internal/particle"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// SpeedTier 粒子速度档位
type SpeedTier string

// SizeTier 粒子尺寸档位
type SizeTier string

const (
	SpeedSlow   SpeedTier = "slow"
	SpeedMedium SpeedTier = "medium"
	SpeedFast   SpeedTier = "fast"

	SizeSmall  SizeTier = "small"
	SizeMedium SizeTier = "medium"
	SizeLarge  SizeTier = "large"
)

// speedMultipliers 速度档位 → 初始/重生速度倍率
var speedMultipliers = map[SpeedTier]float64{
	SpeedSlow:   0.5,
	SpeedMedium: 1,
	SpeedFast:   2,
}

// sizeRange 粒子半径范围（像素）
type sizeRange struct {
	Min float64
	Max float64
}

// sizeRanges 尺寸档位 → 半径范围
var sizeRanges = map[SizeTier]sizeRange{
	SizeSmall:  {Min: 0.5, Max: 1.5},
	SizeMedium: {Min: 1, Max: 3},
	SizeLarge:  {Min: 2, Max: 5},
}

// DefaultColors 默认霓虹调色板
var DefaultColors = []string{"#00f5ff", "#ff00ff", "#39ff14", "#ffd700", "#8a2be2"}

const (
	DefaultParticleCount = 80
	DefaultTrailAlpha    = 0.05
	DefaultBackground    = "#000000"
	DefaultFPS           = 60
)

// FieldConfig 粒子场配置
//
// 对应组件的全部外部选项，可以从 YAML 文件加载，也可以由设置管理器持久化。
//
// 配置文件示例: data/field.yaml
type FieldConfig struct {
	// ParticleCount 粒子数量（存储大小），负数会被钳制为 0
	ParticleCount int `yaml:"particleCount"`

	// Colors 调色板，十六进制颜色字符串（"#00f5ff" 或 "#f0f"）
	Colors []string `yaml:"colors"`

	// Speed 速度档位: slow | medium | fast
	Speed SpeedTier `yaml:"speed"`

	// Size 尺寸档位: small | medium | large
	Size SizeTier `yaml:"size"`

	// SizeRange 可选的半径范围覆盖，格式 "[min max]" 或固定值 "2"
	SizeRange string `yaml:"sizeRange,omitempty"`

	// Interactive 是否启用指针吸引力
	Interactive bool `yaml:"interactive"`

	// Connections 是否绘制粒子间连线
	Connections bool `yaml:"connections"`

	// TrailAlpha 每帧淡出填充的透明度，1 表示完全清屏
	TrailAlpha float64 `yaml:"trailAlpha"`

	// Background 淡出填充颜色
	Background string `yaml:"background"`

	// Seed 随机种子，0 表示使用当前时间
	Seed int64 `yaml:"seed"`

	// FPS 显式帧循环的帧率
	FPS int `yaml:"fps"`
}

// Palette 解析后的调色板
type Palette []color.NRGBA

// DefaultFieldConfig 返回默认配置
func DefaultFieldConfig() *FieldConfig {
	colors := make([]string, len(DefaultColors))
	copy(colors, DefaultColors)

	return &FieldConfig{
		ParticleCount: DefaultParticleCount,
		Colors:        colors,
		Speed:         SpeedMedium,
		Size:          SizeMedium,
		Interactive:   true,
		Connections:   true,
		TrailAlpha:    DefaultTrailAlpha,
		Background:    DefaultBackground,
		FPS:           DefaultFPS,
	}
}

// LoadFieldConfig 加载粒子场配置
//
// 从指定路径加载 YAML 格式的配置文件，缺省字段保留默认值。
//
// 参数:
//   - path: 配置文件路径（如 "data/field.yaml"）
//
// 返回:
//   - *FieldConfig: 加载成功后的配置结构
//   - error: 加载失败时返回错误
func LoadFieldConfig(path string) (*FieldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field config: %w", err)
	}

	return ParseFieldConfig(data)
}

// ParseFieldConfig 从 YAML 数据解析配置（叠加在默认值之上）
func ParseFieldConfig(data []byte) (*FieldConfig, error) {
	cfg := DefaultFieldConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse field config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field config: %w", err)
	}

	return cfg, nil
}

// Validate 验证配置有效性
//
// 检查内容：
//   - 速度、尺寸档位必须是已知值（空值视为 medium）
//   - 颜色字符串必须可解析
//   - sizeRange 必须可解析且非负
//   - trailAlpha 在 [0, 1] 内，fps 不能为负
func (c *FieldConfig) Validate() error {
	if c.Speed != "" {
		if _, ok := speedMultipliers[c.Speed]; !ok {
			return fmt.Errorf("unknown speed %q (want slow, medium or fast)", c.Speed)
		}
	}

	if c.Size != "" {
		if _, ok := sizeRanges[c.Size]; !ok {
			return fmt.Errorf("unknown size %q (want small, medium or large)", c.Size)
		}
	}

	for _, s := range c.Colors {
		if _, err := ParseColor(s); err != nil {
			return err
		}
	}

	if c.Background != "" {
		if _, err := ParseColor(c.Background); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}

	if c.SizeRange != "" {
		min, _, err := particle.ParseRange(c.SizeRange)
		if err != nil {
			return fmt.Errorf("sizeRange: %w", err)
		}
		if min < 0 {
			return fmt.Errorf("sizeRange min(%.2f) must not be negative", min)
		}
	}

	if c.TrailAlpha < 0 || c.TrailAlpha > 1 || math.IsNaN(c.TrailAlpha) {
		return fmt.Errorf("trailAlpha(%.2f) must be within [0, 1]", c.TrailAlpha)
	}

	if c.FPS < 0 {
		return fmt.Errorf("fps(%d) must not be negative", c.FPS)
	}

	return nil
}

// Normalize 把非法值钳制为可用的默认值，不会返回错误
//
// 粒子场是装饰性背景，任何非法输入都退化为可渲染的默认值。
func (c *FieldConfig) Normalize() {
	if c.ParticleCount < 0 {
		c.ParticleCount = 0
	}
	if _, ok := speedMultipliers[c.Speed]; !ok {
		c.Speed = SpeedMedium
	}
	if _, ok := sizeRanges[c.Size]; !ok {
		c.Size = SizeMedium
	}
	if c.TrailAlpha < 0 || c.TrailAlpha > 1 || math.IsNaN(c.TrailAlpha) {
		c.TrailAlpha = DefaultTrailAlpha
	}
	if _, err := ParseColor(c.Background); err != nil {
		c.Background = DefaultBackground
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}

	valid := c.Colors[:0]
	for _, s := range c.Colors {
		if _, err := ParseColor(s); err == nil {
			valid = append(valid, s)
		}
	}
	c.Colors = valid
	if len(c.Colors) == 0 {
		c.Colors = append(c.Colors, DefaultColors...)
	}
}

// Clone 返回配置的深拷贝
func (c *FieldConfig) Clone() *FieldConfig {
	clone := *c
	clone.Colors = append([]string(nil), c.Colors...)
	return &clone
}

// SpeedMultiplier 返回速度档位对应的倍率，未知档位按 medium 处理
func SpeedMultiplier(tier SpeedTier) float64 {
	if m, ok := speedMultipliers[tier]; ok {
		return m
	}
	return speedMultipliers[SpeedMedium]
}

// SizeBounds 返回尺寸档位对应的半径范围，未知档位按 medium 处理
func SizeBounds(tier SizeTier) (min, max float64) {
	r, ok := sizeRanges[tier]
	if !ok {
		r = sizeRanges[SizeMedium]
	}
	return r.Min, r.Max
}

// NextSpeed 循环切换速度档位 slow → medium → fast → slow
func NextSpeed(tier SpeedTier) SpeedTier {
	switch tier {
	case SpeedSlow:
		return SpeedMedium
	case SpeedMedium:
		return SpeedFast
	default:
		return SpeedSlow
	}
}

// SpeedMultiplier 当前配置的速度倍率
func (c *FieldConfig) SpeedMultiplier() float64 {
	return SpeedMultiplier(c.Speed)
}

// ParticleSizeRange 当前配置的半径范围，sizeRange 覆盖优先于档位
func (c *FieldConfig) ParticleSizeRange() (min, max float64) {
	if c.SizeRange != "" {
		if lo, hi, err := particle.ParseRange(c.SizeRange); err == nil && lo >= 0 {
			return lo, hi
		}
	}
	return SizeBounds(c.Size)
}

// Palette 解析调色板，任何一个颜色非法都会返回错误
func (c *FieldConfig) Palette() (Palette, error) {
	palette := make(Palette, 0, len(c.Colors))
	for _, s := range c.Colors {
		clr, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		palette = append(palette, clr)
	}
	return palette, nil
}

// BackgroundColor 淡出填充颜色，alpha 为 TrailAlpha
func (c *FieldConfig) BackgroundColor() color.NRGBA {
	bg, err := ParseColor(c.Background)
	if err != nil {
		bg = color.NRGBA{A: 255}
	}
	bg.A = uint8(math.Round(clamp01(c.TrailAlpha) * 255))
	return bg
}

// ParseColor 解析十六进制颜色字符串为不透明 NRGBA
func ParseColor(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
