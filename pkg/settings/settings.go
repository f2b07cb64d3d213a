// Package settings 持久化查看器设置（混合模式、HUD、点大小等）
package settings

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// 点大小倍率范围
const (
	MinPointScale = 0.25
	MaxPointScale = 4.0
)

// ViewerSettings 查看器设置
// 注意：这些设置是全局的，与场景文件无关
type ViewerSettings struct {
	// 渲染设置
	Additive   bool    `yaml:"additive"`   // 加法混合（发光叠加）
	PointScale float64 `yaml:"pointScale"` // 点大小倍率 0.25 ~ 4.0
	ShowHUD    bool    `yaml:"showHUD"`    // 显示状态信息

	// 显示设置
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
	Chime      bool `yaml:"chime"`      // 切换展示项时播放提示音

	// LastScene 上次打开的场景文件，空表示内置默认场景
	LastScene string `yaml:"lastScene"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Additive:   true,
		PointScale: 1.0,
		ShowHUD:    true,
	}
}

// Manager 设置管理器
// 负责设置的加载、保存和内存管理
type Manager struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ViewerSettings
	logger       zerolog.Logger
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// NewManager 创建设置管理器并尝试加载已保存的设置
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 加载失败不是致命错误，记录警告后使用默认设置。
func NewManager(gdataManager *gdata.Manager, logger zerolog.Logger) *Manager {
	m := &Manager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
		logger:       logger.With().Str("component", "settings").Logger(),
	}
	if err := m.Load(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to load settings, using defaults")
	}
	return m
}

// Open 打开名为 appName 的 gdata 存储并创建管理器
// 存储不可用时退化为仅内存模式
func Open(appName string, logger zerolog.Logger) *Manager {
	if err := ensureStorageDir(); err != nil {
		logger.Warn().Err(err).Msg("settings storage directory unavailable")
	}
	gm, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		logger.Warn().Err(err).Msg("settings storage unavailable, running in memory")
		gm = nil
	}
	return NewManager(gm, logger)
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或设置不存在，使用默认设置
func (m *Manager) Load() error {
	// 降级模式：无法持久化，使用默认设置
	if m.gdataManager == nil {
		m.settings = DefaultSettings()
		return nil
	}

	if !m.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		m.settings = DefaultSettings()
		return nil
	}

	data, err := m.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 先填默认值，旧版本文件缺少的字段保持默认
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.PointScale = clampPointScale(loaded.PointScale)

	m.settings = loaded
	m.logger.Debug().Msg("settings loaded")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (m *Manager) Save() error {
	if m.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(m.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := m.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	m.logger.Debug().Msg("settings saved")
	return nil
}

// Persistent 是否可以持久化（非降级模式）
func (m *Manager) Persistent() bool {
	return m.gdataManager != nil
}

// Settings 获取当前设置
func (m *Manager) Settings() *ViewerSettings {
	return m.settings
}

// 以下方法仅修改内存中的设置，需调用 Save() 持久化

// SetAdditive 设置加法混合
func (m *Manager) SetAdditive(on bool) { m.settings.Additive = on }

// SetShowHUD 设置 HUD 显示
func (m *Manager) SetShowHUD(on bool) { m.settings.ShowHUD = on }

// SetFullscreen 设置全屏模式
func (m *Manager) SetFullscreen(on bool) { m.settings.Fullscreen = on }

// SetChime 设置提示音
func (m *Manager) SetChime(on bool) { m.settings.Chime = on }

// SetLastScene 记录最近打开的场景
func (m *Manager) SetLastScene(path string) { m.settings.LastScene = path }

// SetPointScale 设置点大小倍率，限制在 MinPointScale ~ MaxPointScale
func (m *Manager) SetPointScale(scale float64) {
	m.settings.PointScale = clampPointScale(scale)
}

func clampPointScale(scale float64) float64 {
	if scale < MinPointScale {
		return MinPointScale
	}
	if scale > MaxPointScale {
		return MaxPointScale
	}
	return scale
}
