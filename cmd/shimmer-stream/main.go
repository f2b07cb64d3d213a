// Package main serves a scene as a websocket frame stream.
//
// Endpoints:
//
//	/frames   websocket, one binary frame per tick
//	/control  POST {"cmd": "skip" | "pause" | "resume"}
//	/health   JSON status
//
// Usage:
//
//	go run ./cmd/shimmer-stream --addr :8080 --fps 30 --lz4
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/scene"
	"github.com/gonewx/shimmer/pkg/stream"
)

var (
	addrFlag    = flag.String("addr", ":8080", "HTTP listen address")
	fpsFlag     = flag.Int("fps", 30, "Frames per second")
	lz4Flag     = flag.Bool("lz4", false, "Compress frames with lz4")
	configFlag  = flag.String("config", "", "Scene YAML file")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()
	logger := cli.NewLogger(*verboseFlag)
	if !*verboseFlag {
		logger = logger.Level(zerolog.InfoLevel)
	}

	cfg, err := cli.LoadScene(*configFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load scene")
	}
	sc, err := scene.New(cfg, nil,
		scene.WithRand(rand.New(rand.NewSource(*seedFlag))),
		scene.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build scene")
	}
	defer sc.Close()

	server := stream.NewServer(sc,
		stream.WithCompression(*lz4Flag),
		stream.WithLogger(logger))

	srv := &http.Server{
		Addr:         *addrFlag,
		Handler:      withCORS(server.Handler()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan error, 1)
	go func() { loopDone <- server.Run(ctx, *fpsFlag) }()
	go func() {
		logger.Info().Str("addr", *addrFlag).Bool("lz4", *lz4Flag).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			cancel()
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	loopExited := false
	select {
	case s := <-ch:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
		exitCode = 1
	case err := <-loopDone:
		logger.Error().Err(err).Msg("stream loop failed")
		exitCode = 1
		loopExited = true
	}
	cancel()
	// 场景只能由模拟循环访问，关闭前等待其退出
	if !loopExited {
		<-loopDone
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if exitCode != 0 {
		sc.Close()
		os.Exit(exitCode)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
