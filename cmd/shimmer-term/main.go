// Package main shows a scene in the terminal, one glyph per cell.
//
// Usage:
//
//	go run ./cmd/shimmer-term [flags]
//
// Flags:
//
//	--config <path>   Scene YAML (default: built-in scene)
//	--seed <n>        Random seed (default 1)
//	--fps <n>         Frames per second (default 30)
//	--verbose         Debug logging to shimmer-term.log
//
// Controls:
//
//	Space     - Pause/resume
//	N         - Skip to the next phase
//	Q/Escape  - Quit
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/render"
	"github.com/gonewx/shimmer/pkg/render/term"
	"github.com/gonewx/shimmer/pkg/scene"
)

var (
	configFlag  = flag.String("config", "", "Scene YAML file")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	fpsFlag     = flag.Int("fps", 30, "Frames per second")
	verboseFlag = flag.Bool("verbose", false, "Write debug log to shimmer-term.log")
)

type viewer struct {
	screen   tcell.Screen
	scene    *scene.Scene
	camera   *render.Camera
	renderer *term.Renderer
	paused   bool
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shimmer-term:", err)
		os.Exit(1)
	}
}

func run() error {
	if *fpsFlag <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *fpsFlag)
	}

	// 终端被占用，日志只能写文件
	logger := zerolog.New(io.Discard)
	if *verboseFlag {
		f, err := os.Create("shimmer-term.log")
		if err != nil {
			return err
		}
		defer f.Close()
		logger = zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}

	cfg, err := cli.LoadScene(*configFlag)
	if err != nil {
		return err
	}
	sc, err := scene.New(cfg, nil,
		scene.WithRand(rand.New(rand.NewSource(*seedFlag))),
		scene.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sc.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	camera := render.DefaultCamera()
	camera.RotationSpeed = 0.15
	v := &viewer{
		screen:   screen,
		scene:    sc,
		camera:   camera,
		renderer: term.New(camera),
	}
	return v.loop(time.Second / time.Duration(*fpsFlag))
}

func (v *viewer) loop(frame time.Duration) error {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				// Fini 之后 PollEvent 返回 nil
				return
			}
			events <- ev
		}
	}()

	dt := frame.Seconds()
	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if !v.paused {
				if err := v.scene.Update(dt); err != nil {
					return err
				}
				v.camera.Advance(dt)
			}
			v.draw()
		}
	}
}

// handleEvent returns false when the viewer should quit.
func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'n', 'N':
				v.scene.Skip()
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) draw() {
	v.renderer.Draw(v.screen, v.scene.Snapshot())

	st := v.scene.Stats()
	status := fmt.Sprintf(" %s  %s  %.2f  alive %d ", st.ItemName, st.State, st.Opacity, st.Field.Alive)
	if v.paused {
		status += "[paused] "
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	for col, r := range []rune(status) {
		v.screen.SetContent(col, 0, r, nil, style)
	}
	v.screen.Show()
}
