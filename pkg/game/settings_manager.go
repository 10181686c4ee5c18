package game

import (
	"fmt"
	"log"

	"github.com/decker502/particlefield/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// UserToggles 用户在运行时切换并持久化的设置
//
// 只保存用户实际切换过的字段（nil 表示未切换），其余字段始终来自基础配置，
// 因此配置文件和命令行参数的修改在下次启动时仍然生效。
type UserToggles struct {
	Interactive *bool            `yaml:"interactive,omitempty"`
	Connections *bool            `yaml:"connections,omitempty"`
	Speed       config.SpeedTier `yaml:"speed,omitempty"`
}

// apply 把已切换的字段写入 cfg
func (t UserToggles) apply(cfg *config.FieldConfig) {
	if t.Interactive != nil {
		cfg.Interactive = *t.Interactive
	}
	if t.Connections != nil {
		cfg.Connections = *t.Connections
	}
	if t.Speed != "" {
		cfg.Speed = t.Speed
	}
}

// SettingsManager 设置管理器
// 负责用户切换项的加载、保存，以及当前生效配置的内存管理
//
// 当前配置 = 基础配置（默认值、配置文件、命令行参数）+ 保存的用户切换项。
// 只有用户切换项会被持久化。
type SettingsManager struct {
	gdataManager *gdata.Manager      // gdata 跨平台存储管理器，可为 nil（降级模式）
	base         *config.FieldConfig // 基础配置（不持久化）
	toggles      UserToggles         // 用户切换项（持久化）
	settings     *config.FieldConfig // 当前生效的设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "field"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//   - base: 基础配置，为 nil 时使用 config.DefaultFieldConfig()
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留以便调用方统一处理（加载失败不会返回错误）
func NewSettingsManager(gdataManager *gdata.Manager, base *config.FieldConfig) (*SettingsManager, error) {
	if base == nil {
		base = config.DefaultFieldConfig()
	}

	sm := &SettingsManager{
		gdataManager: gdataManager,
		base:         base.Clone(),
		settings:     base.Clone(),
	}

	// 尝试加载已保存的切换项
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用基础配置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载用户切换项并叠加到基础配置上
//
// 如果 gdataManager 为 nil 或文件不存在，使用基础配置
//
// 返回：
//   - error: 如果反序列化或校验失败返回错误
func (sm *SettingsManager) Load() error {
	sm.toggles = UserToggles{}
	sm.settings = sm.base.Clone()

	// 降级模式：无法持久化，使用基础配置
	if sm.gdataManager == nil {
		return nil
	}

	// 检查设置文件是否存在
	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var toggles UserToggles
	if err := yaml.Unmarshal(data, &toggles); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	loaded := sm.base.Clone()
	toggles.apply(loaded)
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid saved settings: %w", err)
	}

	sm.toggles = toggles
	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存用户切换项到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.toggles)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetConfig 获取当前生效的设置
func (sm *SettingsManager) GetConfig() *config.FieldConfig {
	return sm.settings
}

// GetToggles 获取已切换的用户设置
func (sm *SettingsManager) GetToggles() UserToggles {
	return sm.toggles
}

// Update 在当前设置的副本上执行 fn，校验通过后替换当前设置
//
// 注意：只修改本次运行的设置，不会被 Save() 持久化（用于命令行参数覆盖）
//
// 返回：
//   - error: 修改后的设置校验失败时返回错误，当前设置保持不变
func (sm *SettingsManager) Update(fn func(cfg *config.FieldConfig)) error {
	next := sm.settings.Clone()
	fn(next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings update: %w", err)
	}
	sm.settings = next
	return nil
}

// SetInteractive 设置指针吸引开关
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetInteractive(enabled bool) {
	sm.toggles.Interactive = &enabled
	sm.settings.Interactive = enabled
}

// SetConnections 设置粒子连线开关
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetConnections(enabled bool) {
	sm.toggles.Connections = &enabled
	sm.settings.Connections = enabled
}

// SetSpeed 设置速度档位，未知档位被忽略
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetSpeed(tier config.SpeedTier) {
	switch tier {
	case config.SpeedSlow, config.SpeedMedium, config.SpeedFast:
		sm.toggles.Speed = tier
		sm.settings.Speed = tier
	}
}
