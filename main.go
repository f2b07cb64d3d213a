// Package main is the desktop viewer: it reveals the items of a scene as
// particle shimmer in an ebiten window.
//
// Usage:
//
//	go run . [flags]
//
// Flags:
//
//	--config <path>   Scene YAML (default: last opened scene, then the built-in one)
//	--seed <n>        Random seed (default 1)
//	--verbose         Debug logging
//	--chime           Play a tone when each item starts fading in
//
// Controls:
//
//	Space   - Pause/resume
//	N       - Skip to the next phase
//	A       - Toggle additive blending
//	H       - Toggle HUD
//	R       - Toggle camera rotation
//	= / -   - Larger/smaller points
//	F11     - Fullscreen
package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/app"
	"github.com/gonewx/shimmer/pkg/embedded"
	"github.com/gonewx/shimmer/pkg/settings"
)

var (
	configFlag  = flag.String("config", "", "Scene YAML file")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
	chimeFlag   = flag.Bool("chime", false, "Play a tone on every item change")
)

func main() {
	flag.Parse()
	logger := cli.NewLogger(*verboseFlag)

	// 初始化嵌入资源，必须在加载场景之前
	embedded.Init(dataFS)

	sm := settings.Open("shimmer", logger)

	viewer, err := app.NewApp(app.Config{
		ScenePath: *configFlag,
		Seed:      *seedFlag,
		Logger:    logger,
		Settings:  sm,
		Chime:     *chimeFlag,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to start viewer")
		os.Exit(1)
	}

	ebiten.SetWindowSize(app.ScreenWidth, app.ScreenHeight)
	ebiten.SetWindowTitle("Shimmer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(viewer)
	if err := viewer.Close(); err != nil {
		logger.Warn().Err(err).Msg("close")
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("viewer stopped")
		os.Exit(1)
	}
}
