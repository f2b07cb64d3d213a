package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/gonewx/shimmer/internal/particle"
	"github.com/gonewx/shimmer/pkg/embedded"
	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/reveal"
	"github.com/gonewx/shimmer/pkg/source"
	"github.com/gonewx/shimmer/pkg/types"
)

// 默认的淡入/保持/淡出时长（秒），配置省略时使用
const (
	DefaultFadeIn  = 1.0
	DefaultHold    = 3.0
	DefaultFadeOut = 1.0
)

// ErrNoItems 场景中没有任何展示项
var ErrNoItems = errors.New("scene has no items")

// Scene 场景配置
//
// 配置文件位置: data/scenes/*.yaml，启动时读取一次。
// 未填写的字段在 Parse 时补全为默认值。
type Scene struct {
	Field  FieldSection  `yaml:"field"`
	Reveal RevealSection `yaml:"reveal"`
	Text   TextSection   `yaml:"text"`
	Image  ImageSection  `yaml:"image"`
	Items  []ItemConfig  `yaml:"items"`

	// BaseDir 相对图片路径的基准目录，Load 时设为配置文件所在目录
	BaseDir string `yaml:"-"`
}

// FieldSection 粒子场参数
type FieldSection struct {
	MaxParticles     int       `yaml:"maxParticles"`     // 0 表示默认 5000
	SpawnRatePerTick int       `yaml:"spawnRatePerTick"` // 0 表示默认 20
	Lifetime         string    `yaml:"lifetime"`         // "[1 3]" 或固定值
	VelocityMin      []float64 `yaml:"velocityMin"`      // [x, y, z]
	VelocityMax      []float64 `yaml:"velocityMax"`      // [x, y, z]
	BaseSize         float64   `yaml:"baseSize"`
	SizeCurve        string    `yaml:"sizeCurve"` // "0,0.6 0.5,1 1,0.3"，可带插值关键字
}

// RevealSection 淡入淡出序列参数
type RevealSection struct {
	Loop           bool     `yaml:"loop"`
	SpawnThreshold *float64 `yaml:"spawnThreshold"`
}

// TextSection 文字采样参数
type TextSection struct {
	Step  int     `yaml:"step"`
	Scale float64 `yaml:"scale"`
	Depth float64 `yaml:"depth"`
}

// ImageSection 图片采样参数
type ImageSection struct {
	Step         int      `yaml:"step"`
	Scale        float64  `yaml:"scale"`
	MinLuminance *float64 `yaml:"minLuminance"` // 0 关闭暗像素过滤，未设置时使用默认值
}

// ItemConfig 单个展示项，text / image / cloud 三选一
type ItemConfig struct {
	Name  string `yaml:"name"`
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
	Cloud int    `yaml:"cloud"`

	FadeIn  *float64 `yaml:"fadeIn"`
	Hold    *float64 `yaml:"hold"`
	FadeOut *float64 `yaml:"fadeOut"`

	Color  string `yaml:"color"`  // "#rrggbb"，默认白色；点云默认彩虹色
	Easing string `yaml:"easing"` // 缓动函数名，默认 linear
}

// Load 从 YAML 文件加载场景配置
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene config: %w", err)
	}
	scene, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scene.BaseDir = filepath.Dir(path)
	return scene, nil
}

// LoadEmbedded 加载内置场景（data/scenes/<name>.yaml），需要先调用 embedded.Init
func LoadEmbedded(name string) (*Scene, error) {
	data, err := embedded.ReadScene(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded scene %q: %w", name, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容，补全默认值并验证
func Parse(data []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("failed to parse scene YAML: %w", err)
	}
	scene.applyDefaults()
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene config: %w", err)
	}
	return &scene, nil
}

// Default 返回内置的单项文字场景
func Default() *Scene {
	scene := &Scene{
		Reveal: RevealSection{Loop: true},
		Items:  []ItemConfig{{Name: "hello", Text: "SHIMMER", Color: "#66ccff"}},
	}
	scene.applyDefaults()
	return scene
}

func (s *Scene) applyDefaults() {
	f := &s.Field
	if f.MaxParticles == 0 {
		f.MaxParticles = field.DefaultMaxParticles
	}
	if f.SpawnRatePerTick == 0 {
		f.SpawnRatePerTick = field.DefaultSpawnRatePerTick
	}
	if f.Lifetime == "" {
		f.Lifetime = fmt.Sprintf("[%g %g]", field.DefaultLifetimeMin, field.DefaultLifetimeMax)
	}
	if f.BaseSize == 0 {
		f.BaseSize = field.DefaultBaseSize
	}
	def := field.DefaultConfig()
	if f.VelocityMin == nil {
		f.VelocityMin = []float64{def.VelocityMin.X, def.VelocityMin.Y, def.VelocityMin.Z}
	}
	if f.VelocityMax == nil {
		f.VelocityMax = []float64{def.VelocityMax.X, def.VelocityMax.Y, def.VelocityMax.Z}
	}

	for i := range s.Items {
		it := &s.Items[i]
		if it.Name == "" {
			it.Name = fmt.Sprintf("item-%d", i)
		}
		if it.FadeIn == nil {
			it.FadeIn = ptr(DefaultFadeIn)
		}
		if it.Hold == nil {
			it.Hold = ptr(DefaultHold)
		}
		if it.FadeOut == nil {
			it.FadeOut = ptr(DefaultFadeOut)
		}
	}
}

func ptr(v float64) *float64 { return &v }

// Validate 验证配置有效性
//
// 检查：
//   - 至少一个展示项，每项恰好指定 text / image / cloud 之一
//   - 时长为有限值（负值合法，表示跳过该阶段）
//   - 颜色、缓动名、寿命范围、尺寸曲线可解析
//   - 粒子上限和生成速率非负
func (s *Scene) Validate() error {
	if len(s.Items) == 0 {
		return ErrNoItems
	}
	if s.Field.MaxParticles < 0 {
		return fmt.Errorf("field.maxParticles must be >= 0, got %d", s.Field.MaxParticles)
	}
	if s.Field.SpawnRatePerTick < 0 {
		return fmt.Errorf("field.spawnRatePerTick must be >= 0, got %d", s.Field.SpawnRatePerTick)
	}
	if _, err := s.FieldConfig(); err != nil {
		return err
	}
	if l := s.Image.MinLuminance; l != nil && *l > 1 {
		return fmt.Errorf("image.minLuminance must be <= 1, got %g", *l)
	}
	if t := s.Reveal.SpawnThreshold; t != nil && (*t < 0 || *t >= 1) {
		return fmt.Errorf("reveal.spawnThreshold must be in [0, 1), got %g", *t)
	}

	for i, it := range s.Items {
		if err := it.validate(); err != nil {
			return fmt.Errorf("items[%d] (%s): %w", i, it.Name, err)
		}
	}
	return nil
}

func (it ItemConfig) validate() error {
	content := 0
	if it.Text != "" {
		content++
	}
	if it.Image != "" {
		content++
	}
	if it.Cloud > 0 {
		content++
	}
	if content != 1 {
		return fmt.Errorf("exactly one of text, image or cloud must be set")
	}
	if it.Cloud < 0 {
		return fmt.Errorf("cloud must be >= 0, got %d", it.Cloud)
	}

	for name, d := range map[string]*float64{"fadeIn": it.FadeIn, "hold": it.Hold, "fadeOut": it.FadeOut} {
		if d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0)) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	if _, err := ParseColor(it.Color); err != nil {
		return err
	}
	if _, err := reveal.LookupEasing(it.Easing); err != nil {
		return err
	}
	return nil
}

// ParseColor 解析 "#rrggbb" 或 "#rgb" 颜色，空字符串为白色
func ParseColor(s string) (types.RGB, error) {
	if s == "" {
		return types.White, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return types.RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return types.RGB{R: c.R, G: c.G, B: c.B}, nil
}

// FieldConfig 转换为粒子场配置
func (s *Scene) FieldConfig() (field.Config, error) {
	f := s.Field
	cfg := field.Config{
		MaxParticles:     f.MaxParticles,
		SpawnRatePerTick: f.SpawnRatePerTick,
		BaseSize:         f.BaseSize,
	}

	lo, hi, err := particle.ParseRange(f.Lifetime)
	if err != nil {
		return field.Config{}, fmt.Errorf("field.lifetime: %w", err)
	}
	if lo <= 0 {
		return field.Config{}, fmt.Errorf("field.lifetime must be positive, got %q", f.Lifetime)
	}
	cfg.LifetimeMin, cfg.LifetimeMax = lo, hi

	if cfg.VelocityMin, err = vec3(f.VelocityMin); err != nil {
		return field.Config{}, fmt.Errorf("field.velocityMin: %w", err)
	}
	if cfg.VelocityMax, err = vec3(f.VelocityMax); err != nil {
		return field.Config{}, fmt.Errorf("field.velocityMax: %w", err)
	}

	if f.SizeCurve != "" {
		if cfg.SizeCurve, cfg.SizeInterp, err = particle.ParseCurve(f.SizeCurve); err != nil {
			return field.Config{}, fmt.Errorf("field.sizeCurve: %w", err)
		}
	}
	return cfg, nil
}

func vec3(v []float64) (types.Vec3, error) {
	if len(v) != 3 {
		return types.Vec3{}, fmt.Errorf("expected [x, y, z], got %d values", len(v))
	}
	return types.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// RevealItems 转换为序列项
func (s *Scene) RevealItems() ([]reveal.Item, error) {
	items := make([]reveal.Item, 0, len(s.Items))
	for i, it := range s.Items {
		var c types.RGB
		// 未指定颜色的点云保持零值，由 source 生成彩虹色
		if it.Color != "" || it.Cloud == 0 {
			var err error
			if c, err = ParseColor(it.Color); err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
		}
		items = append(items, reveal.Item{
			Name:    it.Name,
			FadeIn:  deref(it.FadeIn, DefaultFadeIn),
			Hold:    deref(it.Hold, DefaultHold),
			FadeOut: deref(it.FadeOut, DefaultFadeOut),
			Color:   c,
			Easing:  it.Easing,
			Text:    it.Text,
			Image:   it.Image,
			Cloud:   it.Cloud,
		})
	}
	return items, nil
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// RevealOptions 序列器选项
func (s *Scene) RevealOptions() []reveal.Option {
	opts := []reveal.Option{reveal.WithLoop(s.Reveal.Loop)}
	if s.Reveal.SpawnThreshold != nil {
		opts = append(opts, reveal.WithSpawnThreshold(*s.Reveal.SpawnThreshold))
	}
	return opts
}

// TextOptions 文字采样选项，颜色由展示项决定
func (s *Scene) TextOptions() source.TextOptions {
	return source.TextOptions{Step: s.Text.Step, Scale: s.Text.Scale, Depth: s.Text.Depth}
}

// ImageOptions 图片采样选项
func (s *Scene) ImageOptions() source.ImageOptions {
	opts := source.ImageOptions{Step: s.Image.Step, Scale: s.Image.Scale}
	if l := s.Image.MinLuminance; l != nil {
		opts.MinLuminance = *l
		if *l <= 0 {
			opts.MinLuminance = -1
		}
	}
	return opts
}
