// Package app 提供查看器的 ebiten 包装
//
// 该包把场景加载、渲染器和设置管理组装成一个 ebiten.Game。
// 桌面端通过根目录 main.go 调用 NewApp()。
package app

import (
	"fmt"
	"image/color"
	"math/rand"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/chime"
	"github.com/gonewx/shimmer/pkg/render"
	"github.com/gonewx/shimmer/pkg/render/ebitenrender"
	"github.com/gonewx/shimmer/pkg/scene"
	"github.com/gonewx/shimmer/pkg/settings"
)

// 逻辑屏幕尺寸
const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// 固定步长，与 ebiten 默认 TPS 一致
const deltaTime = 1.0 / 60.0

// 相机自转速度（弧度/秒），R 键切换
const rotationSpeed = 0.15

// Config 定义应用启动配置
type Config struct {
	// ScenePath 场景文件路径，为空则使用上次打开的场景或内置默认场景
	ScenePath string
	// Seed 随机种子，0 表示使用固定种子 1
	Seed int64
	// Logger 日志输出
	Logger zerolog.Logger
	// Settings 设置管理器，为 nil 时使用仅内存设置
	Settings *settings.Manager
	// Chime 本次运行启用提示音，不写入设置
	Chime bool
}

// App 是查看器的核心包装器，实现 ebiten.Game 接口
type App struct {
	scene    *scene.Scene
	camera   *render.Camera
	renderer *ebitenrender.Renderer
	settings *settings.Manager
	chime    *chime.Player
	logger   zerolog.Logger

	paused      bool
	lastEntries int
	pointer     pointer

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化查看器
//
// 使用内置 YAML 场景前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	sm := cfg.Settings
	if sm == nil {
		sm = settings.NewManager(nil, cfg.Logger)
	}
	vs := sm.Settings()

	path := cfg.ScenePath
	if path == "" {
		path = vs.LastScene
	}
	sceneCfg, err := cli.LoadScene(path)
	if err != nil && cfg.ScenePath == "" && path != "" {
		// 上次的场景文件不可用时退回默认场景
		cfg.Logger.Warn().Err(err).Str("path", path).Msg("last scene unavailable, using default")
		path = ""
		sceneCfg, err = cli.LoadScene(path)
	}
	if err != nil {
		return nil, fmt.Errorf("场景加载失败: %w", err)
	}
	sm.SetLastScene(path)

	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	sc, err := scene.New(sceneCfg, nil,
		scene.WithRand(rand.New(rand.NewSource(seed))),
		scene.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	camera := render.DefaultCamera()
	renderer := ebitenrender.New(camera)
	renderer.Additive = vs.Additive
	renderer.PointScale = vs.PointScale

	a := &App{
		scene:       sc,
		camera:      camera,
		renderer:    renderer,
		settings:    sm,
		logger:      cfg.Logger.With().Str("component", "app").Logger(),
		lastEntries: sc.Stats().Entries,
	}
	if chimeEnabled(cfg, vs) {
		a.chime = chime.New(cfg.Logger)
	}
	if vs.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	// 记录本次打开的场景
	a.persist()
	return a, nil
}

// chimeEnabled 持久设置或本次运行的参数任一开启即可
func chimeEnabled(cfg Config, vs *settings.ViewerSettings) bool {
	return vs.Chime || cfg.Chime
}

// Update 更新场景
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	a.handleInput()

	if a.paused {
		return nil
	}
	if err := a.scene.Update(deltaTime); err != nil {
		return err
	}
	a.camera.Advance(deltaTime)

	if entries := a.scene.Stats().Entries; entries != a.lastEntries {
		a.lastEntries = entries
		a.chime.PlayItem(a.scene.Stats().Item)
	}
	return nil
}

func (a *App) handleInput() {
	changed := false

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			a.settings.SetFullscreen(false)
			changed = true
		} else {
			ebiten.SetFullscreen(true)
			a.settings.SetFullscreen(true)
			changed = true
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.paused = !a.paused
		a.logger.Debug().Bool("paused", a.paused).Msg("pause toggled")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.scene.Skip()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		a.renderer.Additive = !a.renderer.Additive
		a.settings.SetAdditive(a.renderer.Additive)
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		a.settings.SetShowHUD(!a.settings.Settings().ShowHUD)
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if a.camera.RotationSpeed == 0 {
			a.camera.RotationSpeed = rotationSpeed
		} else {
			a.camera.RotationSpeed = 0
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		a.settings.SetPointScale(a.settings.Settings().PointScale * 1.25)
		a.renderer.PointScale = a.settings.Settings().PointScale
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		a.settings.SetPointScale(a.settings.Settings().PointScale / 1.25)
		a.renderer.PointScale = a.settings.Settings().PointScale
		changed = true
	}

	// 触摸/鼠标：点击跳过，拖动旋转
	tapped, dx := a.pointer.step(pointerState())
	if tapped {
		a.scene.Skip()
	}
	a.camera.Rotation += float64(dx) * dragRadiansPerPixel

	// 立即保存，移动端不会调用 Close
	if changed {
		a.persist()
	}
}

// persist 保存设置，失败只记录警告
func (a *App) persist() {
	if err := a.settings.Save(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to save settings")
	}
}

// Draw 绘制粒子和 HUD
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	a.renderer.Draw(screen, a.scene.Snapshot())
	if a.settings.Settings().ShowHUD {
		ebitenutil.DebugPrint(screen, HUDText(a.scene.Stats(), a.paused, a.renderer.Additive, ebiten.ActualTPS()))
	}
}

// HUDText 格式化状态信息
func HUDText(st scene.Stats, paused, additive bool, tps float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "item %d %q  %s  opacity %.2f\n", st.Item, st.ItemName, st.State, st.Opacity)
	fmt.Fprintf(&b, "particles %d  spawned %d  expired %d\n", st.Field.Alive, st.Field.Spawned, st.Field.Expired)
	blend := "alpha"
	if additive {
		blend = "additive"
	}
	fmt.Fprintf(&b, "blend %s  tps %.0f", blend, tps)
	if paused {
		b.WriteString("  [paused]")
	}
	b.WriteString("\ntap/n skip  drag rotate  space pause  a blend  r rotate  -/= size  h hud  f11 fullscreen")
	return b.String()
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// Close 保存设置并释放资源
func (a *App) Close() error {
	a.scene.Close()
	a.renderer.Dispose()
	a.chime.Close()
	if err := a.settings.Save(); err != nil {
		return fmt.Errorf("保存设置失败: %w", err)
	}
	return nil
}
