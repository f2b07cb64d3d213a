package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/shimmer/pkg/config"
	"github.com/gonewx/shimmer/pkg/reveal"
	"github.com/gonewx/shimmer/pkg/scene"
)

func newScene(t *testing.T) *scene.Scene {
	t.Helper()
	cfg, err := config.Parse([]byte(`
field: {maxParticles: 200, spawnRatePerTick: 10}
items:
  - {name: a, text: A, fadeIn: 0, hold: 2, fadeOut: 1}
  - {name: b, cloud: 50, fadeIn: 0, hold: 2, fadeOut: 1}
`))
	require.NoError(t, err)
	sc, err := scene.New(cfg, nil)
	require.NoError(t, err)
	return sc
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFramesAreBroadcast(t *testing.T) {
	s := NewServer(newScene(t), WithCompression(true))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/frames")
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Step(1.0/60))
	require.NoError(t, s.Step(1.0/60))

	for want := uint32(1); want <= 2; want++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		typ, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, typ)

		f, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, want, f.ID)
		assert.Len(t, f.Samples, int(want)*10)
	}
}

func TestControlSkip(t *testing.T) {
	sc := newScene(t)
	s := NewServer(sc)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctl := dial(t, srv, "/control")
	require.NoError(t, ctl.WriteJSON(map[string]string{"cmd": CmdSkip}))

	require.Eventually(t, func() bool {
		if err := s.Step(0); err != nil {
			return false
		}
		return sc.Sequencer().State() == reveal.FadingOut
	}, time.Second, 5*time.Millisecond)
}

func TestControlPause(t *testing.T) {
	sc := newScene(t)
	s := NewServer(sc)
	s.controls <- CmdPause

	require.NoError(t, s.Step(0.5))
	assert.Equal(t, reveal.FadingIn, sc.Sequencer().State(), "paused scene does not advance")
	assert.Equal(t, 0, sc.Field().Len())

	s.controls <- CmdResume
	require.NoError(t, s.Step(0.5))
	assert.Equal(t, reveal.Visible, sc.Sequencer().State())
	assert.Equal(t, 10, sc.Field().Len())
}

func TestHealth(t *testing.T) {
	s := NewServer(newScene(t))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	require.NoError(t, s.Step(1.0/60))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var h health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, uint32(1), h.FrameID)
	assert.Equal(t, 10, h.Alive)
	assert.Equal(t, "a", h.Item)
	assert.Equal(t, "Visible", h.State)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewServer(newScene(t))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "/frames")
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 120) }()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, s.Clients())
}
