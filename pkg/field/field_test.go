package field

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/shimmer/internal/particle"
	"github.com/gonewx/shimmer/pkg/types"
)

func testSources(n int) []types.SourcePoint {
	points := make([]types.SourcePoint, n)
	for i := range points {
		points[i] = types.SourcePoint{
			Position: types.Vec3{X: float64(i), Y: float64(i) * 0.5, Z: 0},
			Color:    types.RGB{R: 1, G: float64(i%2) * 0.5, B: 0.25},
		}
	}
	return points
}

func newTestField(t *testing.T, cfg Config) *Field {
	t.Helper()
	return New(cfg, rand.New(rand.NewSource(42)))
}

// assertInvariants checks age/opacity bounds for every pooled particle
func assertInvariants(t *testing.T, f *Field) {
	t.Helper()
	for i, p := range f.Particles() {
		require.GreaterOrEqual(t, p.Age, 0.0, "particle %d age", i)
		require.LessOrEqual(t, p.Age, p.Lifetime, "particle %d age exceeds lifetime", i)
		require.GreaterOrEqual(t, p.Opacity, 0.0, "particle %d opacity", i)
		require.LessOrEqual(t, p.Opacity, 1.0, "particle %d opacity", i)
	}
	for i, s := range f.Snapshot() {
		require.GreaterOrEqual(t, s.Opacity, 0.0, "sample %d opacity", i)
		require.LessOrEqual(t, s.Opacity, 1.0, "sample %d opacity", i)
	}
}

func TestEnvelopeShape(t *testing.T) {
	const L = 2.5
	assert.InDelta(t, 0, Envelope(0, L), 1e-9)
	assert.InDelta(t, 1, Envelope(L/2, L), 1e-9)
	assert.InDelta(t, 0, Envelope(L, L), 1e-9)

	// 非线性：四分之一处应为 sin(π/4)，而不是线性的 0.5
	assert.InDelta(t, math.Sqrt2/2, Envelope(L/4, L), 1e-9)
	assert.Equal(t, 0.0, Envelope(1, 0))
}

func TestEnvelopeThroughTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 1, 1
	cfg.SpawnRatePerTick = 1
	cfg.MaxParticles = 1
	f := newTestField(t, cfg)
	f.Configure(testSources(1), 1, 1)

	require.NoError(t, f.Tick(0, true))
	ps := f.Particles()
	require.Len(t, ps, 1)
	assert.InDelta(t, 0, ps[0].Opacity, 1e-9, "opacity at birth")

	require.NoError(t, f.Tick(0.5, false))
	assert.InDelta(t, 1, f.Particles()[0].Opacity, 1e-9, "opacity at mid-life")

	require.NoError(t, f.Tick(0.5, false))
	ps = f.Particles()
	require.Len(t, ps, 1)
	assert.InDelta(t, 0, ps[0].Opacity, 1e-9, "opacity at death")
}

func TestConfigureEmptyNeverEmits(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(nil, 5000, 20)

	for i := 0; i < 200; i++ {
		require.NoError(t, f.Tick(0.016, true))
		require.Empty(t, f.Snapshot())
	}
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, f.Stats().Spawned)
}

func TestConfigureResetsPool(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(10), 100, 10)
	require.NoError(t, f.Tick(0.016, true))
	require.Equal(t, 10, f.Len())

	f.Configure(testSources(3), 100, 10)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 3, f.Sources())
	assert.Equal(t, Stats{}, f.Stats())
}

func TestConfigureCopiesSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityMin, cfg.VelocityMax = types.Vec3{}, types.Vec3{}
	f := newTestField(t, cfg)

	points := testSources(1)
	f.Configure(points, 10, 1)
	points[0].Position = types.Vec3{X: 99, Y: 99, Z: 99}

	require.NoError(t, f.Tick(0.1, true))
	assert.Equal(t, types.Vec3{X: 0, Y: 0, Z: 0}, f.Particles()[0].Position)
}

func TestSpawnCopiesSourcePoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityMin = types.Vec3{X: 1, Y: 2, Z: 3}
	cfg.VelocityMax = cfg.VelocityMin
	f := newTestField(t, cfg)

	src := []types.SourcePoint{{Position: types.Vec3{X: 1, Y: 1, Z: 1}, Color: types.RGB{R: 0.2, G: 0.4, B: 0.6}}}
	f.Configure(src, 10, 1)
	require.NoError(t, f.Tick(0.5, true))

	p := f.Particles()[0]
	assert.Equal(t, src[0].Color, p.Color)
	assert.InDelta(t, 1.5, p.Position.X, 1e-9)
	assert.InDelta(t, 2.0, p.Position.Y, 1e-9)
	assert.InDelta(t, 2.5, p.Position.Z, 1e-9)
	assert.Equal(t, types.Vec3{X: 1, Y: 1, Z: 1}, src[0].Position, "source point must not move")
}

func TestSpawnRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 0.5, 1.5
	f := newTestField(t, cfg)
	f.Configure(testSources(50), 1000, 1000)
	require.NoError(t, f.Tick(0, true))

	for _, p := range f.Particles() {
		assert.GreaterOrEqual(t, p.Lifetime, 0.5)
		assert.LessOrEqual(t, p.Lifetime, 1.5)
		assert.GreaterOrEqual(t, p.Velocity.Y, cfg.VelocityMin.Y)
		assert.LessOrEqual(t, p.Velocity.Y, cfg.VelocityMax.Y)
		assert.GreaterOrEqual(t, p.Velocity.X, cfg.VelocityMin.X)
		assert.LessOrEqual(t, p.Velocity.X, cfg.VelocityMax.X)
		assert.Equal(t, 0.0, p.Age)
	}
}

func TestSpawnGateClosed(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(10), 100, 10)

	for i := 0; i < 10; i++ {
		require.NoError(t, f.Tick(0.016, false))
	}
	assert.Equal(t, 0, f.Len())
}

func TestPoolCapacityClampsSpawn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 100, 100
	f := newTestField(t, cfg)
	f.Configure(testSources(5), 25, 10)

	counts := []int{}
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Tick(0.016, true))
		counts = append(counts, f.Len())
	}
	assert.Equal(t, []int{10, 20, 25, 25, 25}, counts)
	assert.Equal(t, 25, f.Capacity())
}

func TestZeroDeltaIsNoOp(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(4), 100, 4)
	require.NoError(t, f.Tick(0.1, true))
	before := f.Particles()

	require.NoError(t, f.Tick(0, false))
	after := f.Particles()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Age, after[i].Age)
		assert.Equal(t, before[i].Position, after[i].Position)
	}
}

func TestInvalidDeltaRejected(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(4), 100, 4)

	for _, dt := range []float64{-0.016, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, f.Tick(dt, true), ErrInvalidDelta)
	}
	assert.Equal(t, 0, f.Len(), "rejected ticks must not touch state")
	assert.Equal(t, 0, f.Stats().Ticks)
}

func TestExpiredParticlesNeverRendered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 0.1, 0.1
	f := newTestField(t, cfg)
	f.Configure(testSources(1), 10, 1)

	require.NoError(t, f.Tick(0.05, true))
	require.Len(t, f.Snapshot(), 1)

	// 这一帧积分后寿命耗尽：仍在池中但不出现在快照里
	require.NoError(t, f.Tick(0.2, false))
	assert.Len(t, f.Particles(), 1)
	assert.Empty(t, f.Snapshot())
	assertInvariants(t, f)

	// 下一帧 Expire 阶段将其移除
	require.NoError(t, f.Tick(0.016, false))
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 1, f.Stats().Expired)
}

func TestExpireBeforeSpawn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 0.1, 0.1
	f := newTestField(t, cfg)
	f.Configure(testSources(3), 2, 2)

	require.NoError(t, f.Tick(0.2, true)) // both spawned and spent in the same frame
	require.Equal(t, 2, f.Len())

	// 池已满，但过期粒子先被移除，因此本帧可以补充两个新粒子
	require.NoError(t, f.Tick(0.01, true))
	assert.Equal(t, 2, f.Len())
	assert.Len(t, f.Snapshot(), 2)
	assert.Equal(t, 4, f.Stats().Spawned)
}

func TestExpirePreservesPoolOrder(t *testing.T) {
	f := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	f.Configure(testSources(1), 10, 1)
	f.particles = []Particle{
		{Lifetime: 1, Age: 0.1, Position: types.Vec3{X: 1}},
		{Lifetime: 1, Age: 1, spent: true, Position: types.Vec3{X: 2}},
		{Lifetime: 1, Age: 0.2, Position: types.Vec3{X: 3}},
		{Lifetime: 1, Age: 1, spent: true, Position: types.Vec3{X: 4}},
		{Lifetime: 1, Age: 0.3, Position: types.Vec3{X: 5}},
	}

	require.NoError(t, f.Tick(0, false))
	snap := f.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []float64{1, 3, 5}, []float64{snap[0].Position.X, snap[1].Position.X, snap[2].Position.X})
}

func TestSnapshotIsDetached(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(2), 10, 2)
	require.NoError(t, f.Tick(0.1, true))

	snap := f.Snapshot()
	require.NotEmpty(t, snap)
	snap[0].Position = types.Vec3{X: 1000}
	snap[0].Opacity = 7

	assert.NotEqual(t, 1000.0, f.Snapshot()[0].Position.X)
	assert.LessOrEqual(t, f.Snapshot()[0].Opacity, 1.0)
}

func TestGlobalOpacityScalesSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 1, 1
	f := newTestField(t, cfg)
	f.Configure(testSources(1), 1, 1)
	require.NoError(t, f.Tick(0.5, true))

	f.SetGlobalOpacity(0.25)
	assert.InDelta(t, 0.25, f.Snapshot()[0].Opacity, 1e-9)

	f.SetGlobalOpacity(4)
	assert.InDelta(t, 1, f.Snapshot()[0].Opacity, 1e-9)

	f.SetGlobalOpacity(-1)
	assert.Equal(t, 0.0, f.Snapshot()[0].Opacity)
}

func TestSizeCurve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 1, 1
	cfg.BaseSize = 2
	cfg.SizeCurve = []particle.Keyframe{{Time: 0, Value: 0.5}, {Time: 1, Value: 1.5}}
	f := newTestField(t, cfg)
	f.Configure(testSources(1), 1, 1)

	require.NoError(t, f.Tick(0.5, true))
	assert.InDelta(t, 2.0, f.Snapshot()[0].Size, 1e-9)

	cfg.SizeCurve = nil
	f = newTestField(t, cfg)
	f.Configure(testSources(1), 1, 1)
	require.NoError(t, f.Tick(0.25, true))
	assert.InDelta(t, 2.0, f.Snapshot()[0].Size, 1e-9)
}

func TestRelease(t *testing.T) {
	f := newTestField(t, DefaultConfig())
	f.Configure(testSources(5), 50, 5)
	require.NoError(t, f.Tick(0.1, true))

	f.Release()
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, f.Sources())
	require.NoError(t, f.Tick(0.1, true))
	assert.Empty(t, f.Snapshot())
}

// TestLongRunScenario: maxParticles=5000, 20 per tick, 500 ticks of 16ms (~8s)
func TestLongRunScenario(t *testing.T) {
	cfg := DefaultConfig()
	f := newTestField(t, cfg)
	f.Configure(testSources(200), 5000, 20)

	var first *Particle
	peak := 0
	for i := 0; i < 500; i++ {
		require.NoError(t, f.Tick(0.016, true))
		require.LessOrEqual(t, f.Len(), 5000)
		if i == 0 {
			p := f.Particles()[0]
			first = &p
		}
		peak = max(peak, f.Len())
		if i%50 == 0 {
			assertInvariants(t, f)
		}
	}
	assertInvariants(t, f)

	// 稳态约为 20/0.016 × 平均寿命(2s) ≈ 2500，上限 5000 之内
	assert.Greater(t, f.Len(), 1500)
	assert.LessOrEqual(t, peak, 5000)

	// 所有粒子寿命 < 8s，第一批粒子早已回收
	stats := f.Stats()
	assert.Equal(t, 500*20, stats.Spawned)
	assert.Greater(t, stats.Expired, 0)
	assert.Equal(t, stats.Spawned-stats.Expired, f.Len())
	for _, p := range f.Particles() {
		assert.False(t, p.Velocity == first.Velocity && p.Lifetime == first.Lifetime,
			"first-generation particle still alive")
	}
}

func TestLongRunScenarioSaturates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifetimeMin, cfg.LifetimeMax = 20, 30
	f := newTestField(t, cfg)
	f.Configure(testSources(10), 5000, 20)

	for i := 0; i < 500; i++ {
		require.NoError(t, f.Tick(0.016, true))
		require.LessOrEqual(t, f.Len(), 5000)
	}
	// 长寿命粒子：数量逼近上限但不会超过
	assert.Equal(t, 5000, f.Len())
}
