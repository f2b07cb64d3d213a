package app

import (
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/reveal"
	"github.com/gonewx/shimmer/pkg/scene"
	"github.com/gonewx/shimmer/pkg/settings"
)

func TestHUDText(t *testing.T) {
	st := scene.Stats{
		Item:     1,
		ItemName: "title",
		State:    reveal.Visible,
		Opacity:  1,
		Field:    field.Stats{Alive: 120, Spawned: 200, Expired: 80},
	}
	text := HUDText(st, true, true, 60)
	assert.Contains(t, text, `item 1 "title"  Visible  opacity 1.00`)
	assert.Contains(t, text, "particles 120  spawned 200  expired 80")
	assert.Contains(t, text, "blend additive  tps 60  [paused]")

	text = HUDText(st, false, false, 59.6)
	assert.Contains(t, text, "blend alpha  tps 60")
	assert.NotContains(t, text, "[paused]")
}

func TestChimeFlagIsNotPersisted(t *testing.T) {
	sm := settings.NewManager(nil, zerolog.Nop())
	cfg := Config{Settings: sm, Chime: true}

	assert.True(t, chimeEnabled(cfg, sm.Settings()))
	assert.False(t, sm.Settings().Chime, "run-only flag must not touch saved settings")

	sm.SetChime(true)
	assert.True(t, chimeEnabled(Config{}, sm.Settings()))
	sm.SetChime(false)
	assert.False(t, chimeEnabled(Config{}, sm.Settings()))
}

func TestPersistWritesThroughImmediately(t *testing.T) {
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	gm, err := gdata.Open(gdata.Config{AppName: "shimmer_test_app"})
	require.NoError(t, err)

	sm := settings.NewManager(gm, zerolog.Nop())
	a := &App{settings: sm, logger: zerolog.Nop()}

	sm.SetAdditive(false)
	sm.SetPointScale(2)
	a.persist()

	// 不经过 Close 也能读回
	reloaded := settings.NewManager(gm, zerolog.Nop()).Settings()
	assert.False(t, reloaded.Additive)
	assert.Equal(t, 2.0, reloaded.PointScale)
}
