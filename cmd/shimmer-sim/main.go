// Package main runs a scene headless and logs particle counts, for checking
// scene tuning without a window.
//
// Usage:
//
//	go run ./cmd/shimmer-sim [flags]
//
// Flags:
//
//	--config <path>   Scene YAML (default: built-in scene)
//	--frames <n>      Frames to simulate (default 600)
//	--dt <seconds>    Frame delta (default 1/60)
//	--seed <n>        Random seed (default 1)
//	--verbose         Debug logging
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/scene"
)

var (
	configFlag  = flag.String("config", "", "Scene YAML file")
	framesFlag  = flag.Int("frames", 600, "Number of frames to simulate")
	dtFlag      = flag.Float64("dt", 1.0/60.0, "Frame delta in seconds")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()
	logger := cli.NewLogger(*verboseFlag)
	if !*verboseFlag {
		// 模拟进度本身就是输出
		logger = logger.Level(zerolog.InfoLevel)
	}
	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	if *framesFlag < 0 {
		return fmt.Errorf("frames must be non-negative, got %d", *framesFlag)
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

	// 每模拟一秒输出一次
	perSecond := 1
	if *dtFlag > 0 {
		perSecond = max(1, int(math.Round(1 / *dtFlag)))
	}

	peak := 0
	for i := 1; i <= *framesFlag; i++ {
		if err := sc.Update(*dtFlag); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		st := sc.Stats()
		peak = max(peak, st.Field.Alive)
		if i%perSecond == 0 {
			logger.Info().
				Float64("t", float64(i)**dtFlag).
				Int("alive", st.Field.Alive).
				Str("item", st.ItemName).
				Stringer("state", st.State).
				Float64("opacity", st.Opacity).
				Msg("tick")
		}
	}

	st := sc.Stats()
	fmt.Printf("frames=%d items_entered=%d alive=%d peak=%d item_spawned=%d item_expired=%d\n",
		st.Frame, st.Entries, st.Field.Alive, peak, st.Field.Spawned, st.Field.Expired)
	return nil
}
