package viz

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/experiment"
	"github.com/san-kum/airace/internal/geom"
	"github.com/san-kum/airace/internal/race"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	assert.Equal(t, 4, c.DotsWide())
	assert.Equal(t, 4, c.DotsHigh())

	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(9, 9)
	assert.True(t, c.IsSet(0, 0))
	assert.True(t, c.IsSet(3, 3))
	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])

	c.Unset(0, 0)
	assert.False(t, c.IsSet(0, 0))
	assert.Equal(t, rune(brailleBlank), c.Grid[0][0])

	c.Clear()
	assert.Equal(t, "⠀⠀", c.String())
}

func TestCanvasShapes(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 9, 0)
	for x := 0; x <= 9; x++ {
		assert.True(t, c.IsSet(x, 0), "line dot %d", x)
	}

	c.Clear()
	c.DrawCircle(10, 10, 4)
	assert.True(t, c.IsSet(14, 10))
	assert.True(t, c.IsSet(6, 10))
	assert.True(t, c.IsSet(10, 14))
	assert.False(t, c.IsSet(10, 10))

	c.Clear()
	c.FillBlock(5, 5, 1)
	assert.True(t, c.IsSet(4, 4))
	assert.True(t, c.IsSet(6, 6))
}

func TestViewportKeepsAspect(t *testing.T) {
	c := NewCanvas(20, 10) // 40 x 40 dots
	vp := FitViewport(c, 0, 0, 100, 50, 0)

	x0, y0 := vp.Map(0, 0)
	x1, y1 := vp.Map(100, 50)
	assert.Equal(t, 0, x0)
	assert.Equal(t, 40, x1)
	assert.Equal(t, 20, y0-y1, "y spans half of x")
	assert.Greater(t, y0, y1, "world y points up the screen")
	assert.Equal(t, 4, vp.Scale(10))
}

func TestGradientText(t *testing.T) {
	assert.Equal(t, "", GradientText("", "#000000", "#ffffff"))
	out := GradientText("ab", "#000000", "#ffffff")
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")

	r, g, b := parseHex("#12ab3c")
	assert.Equal(t, []int{0x12, 0xab, 0x3c}, []int{r, g, b})
	r, _, _ = parseHex("nope")
	assert.Equal(t, 255, r)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "██░░", ProgressBar(0.5, 4))
	assert.Equal(t, "████", ProgressBar(3, 4))
	assert.Equal(t, "░░░░", ProgressBar(-1, 4))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "retro", GetTheme("retro").Name)
	assert.Equal(t, Themes[0].Name, GetTheme("missing").Name)
	assert.Equal(t, Themes[1].Name, NextTheme(Themes[0]).Name)
	assert.Equal(t, Themes[0].Name, NextTheme(Themes[len(Themes)-1]).Name)
	assert.Len(t, ThemeNames(), len(Themes))
}

func TestVisibility(t *testing.T) {
	vis := NewVisibility()
	assert.True(t, vis.Aircraft("a"), "unknown agents are shown")

	v := vis.For("a")
	v.SetAircraftVisible(false)
	v.SetEffectVisible(true)
	assert.False(t, vis.Aircraft("a"))
	assert.True(t, vis.Effect("a"))
	assert.False(t, vis.Effect("b"))
}

func buildEnv(t *testing.T, vis *Visibility) *experiment.Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Arena.Agents = 3
	cfg.Run.Policy = "pursuit"
	cfg.Run.Ticks = 20
	runner, err := experiment.Build(cfg, experiment.NewRegistry(), nil, quiet, experiment.WithVisuals(vis.For))
	require.NoError(t, err)
	return runner
}

func TestCaptureAndFeed(t *testing.T) {
	vis := NewVisibility()
	runner := buildEnv(t, vis)

	var frames []Frame
	feed := NewFeed(5, 0, vis)
	feed.Attach(func(msg tea.Msg) {
		if f, ok := msg.(FrameMsg); ok {
			frames = append(frames, Frame(f))
		}
	})
	runner.AddObserver(feed)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, frames, 4, "ticks 0, 5, 10 and 15")
	last := frames[len(frames)-1]
	assert.True(t, last.Training)
	assert.Len(t, last.Agents, 3)
	assert.NotEmpty(t, last.Gates)
	assert.Equal(t, runner.Environment().CheckpointSize(), last.Gates[0].Radius)
	assert.True(t, last.Gates[len(last.Gates)-1].IsFinish)
	for _, a := range last.Agents {
		assert.True(t, a.Visible)
		assert.InDelta(t, 1.0, a.Heading.Len(), 1e-9)
	}
	assert.Greater(t, last.Time, frames[0].Time)
}

func TestFeedPauseAndClose(t *testing.T) {
	vis := NewVisibility()
	runner := buildEnv(t, vis)
	feed := NewFeed(1, 0, vis)
	runner.AddObserver(feed)
	feed.SetPaused(true)

	done := make(chan struct{})
	go func() {
		runner.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("paused run finished")
	case <-time.After(50 * time.Millisecond):
	}

	feed.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("closed feed still blocks the run")
	}
}

func TestFeedSpeed(t *testing.T) {
	feed := NewFeed(0, 8*time.Millisecond, nil)
	feed.Faster()
	assert.Equal(t, 4*time.Millisecond, feed.Delay())
	feed.Faster()
	feed.Faster()
	feed.Faster()
	assert.Zero(t, feed.Delay())
	feed.Slower()
	assert.Equal(t, time.Millisecond, feed.Delay())
	feed.Slower()
	assert.Equal(t, 2*time.Millisecond, feed.Delay())
}

func sampleFrame() Frame {
	gates := []Gate{
		{Index: 0, Position: geom.Vec3{0, 50, 0}, Orientation: geom.Identity(), Radius: 20},
		{Index: 1, Position: geom.Vec3{300, 50, 300}, Orientation: geom.Identity(), Radius: 20},
		{Index: 2, Position: geom.Vec3{-300, 50, 300}, Orientation: geom.Identity(), Radius: 20, IsFinish: true},
	}
	return Frame{
		Tick:     42,
		Time:     0.84,
		Training: false,
		Gates:    gates,
		Agents: []AgentFrame{
			{Name: "alpha", Position: geom.Vec3{0, 50, 10}, Heading: geom.Forward, Next: 1, Checkpoints: 1, Reward: 0.5, Visible: true},
			{Name: "bravo", Position: geom.Vec3{10, 50, 0}, Heading: geom.Forward, Next: 2, Checkpoints: 3, Exploding: true},
		},
		Rewards: []float64{-1, 0.2, 0.5},
	}
}

func TestStandingsOrder(t *testing.T) {
	s := sampleFrame().Standings()
	assert.Equal(t, "bravo", s[0].Name)
	assert.Equal(t, "alpha", s[1].Name)
}

func TestModelView(t *testing.T) {
	feed := NewFeed(1, 0, nil)
	cancelled := false
	m := NewModel(feed, func() { cancelled = true }, Options{Title: "TEST"})

	assert.Contains(t, m.View(), "waiting")

	next, _ := m.Update(FrameMsg(sampleFrame()))
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "STANDINGS")
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "crash")
	assert.Contains(t, view, "race")
	assert.Less(t, strings.Index(view, "bravo"), strings.Index(view, "alpha"))

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	assert.True(t, feed.Paused())
	assert.Contains(t, m.View(), "PAUSED")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = next.(Model)
	assert.Equal(t, viewOrbit, m.mode)
	assert.NotEmpty(t, m.View())

	next, _ = m.Update(DoneMsg{})
	m = next.(Model)
	assert.Contains(t, m.View(), "FINISHED")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, cancelled)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelAdjustsCheckpointRadius(t *testing.T) {
	params := config.NewEnvParams(map[string]float64{race.ParamCheckpointRadius: 3})
	m := NewModel(NewFeed(1, 0, nil), nil, Options{Params: params})
	key := func(r rune) {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}

	key('r')
	assert.Equal(t, 3+radiusStep, params.GetWithDefault(race.ParamCheckpointRadius, -1))

	key('R')
	key('R')
	assert.Equal(t, 0.0, params.GetWithDefault(race.ParamCheckpointRadius, -1), "radius floors at zero")

	next, _ := m.Update(FrameMsg(sampleFrame()))
	m = next.(Model)
	assert.Contains(t, m.View(), "Radius")

	bare := NewModel(NewFeed(1, 0, nil), nil, Options{})
	next, _ = bare.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.NotContains(t, next.(Model).View(), "Radius")
}

func TestSceneWireframe(t *testing.T) {
	w := SceneWireframe(sampleFrame())
	// Course edges, 12 ring segments per gate, a dot and heading for the
	// flying aircraft and two strokes for the exploding one.
	assert.Len(t, w.Edges, 3+3*12+2+2)
	for _, e := range w.Edges {
		for k := 0; k < 3; k++ {
			assert.LessOrEqual(t, e.Start[k], 1.5)
			assert.GreaterOrEqual(t, e.Start[k], -1.5)
		}
	}

	blank := NewCanvas(30, 10).String()
	c := NewCanvas(30, 10)
	Render3D(c, w, NewCamera())
	assert.NotEqual(t, blank, c.String())
	assert.Empty(t, SceneWireframe(Frame{}).Edges)
}

func TestPicker(t *testing.T) {
	m := newPicker()
	require.NotEmpty(t, m.presets)
	assert.Contains(t, m.View(), "AIRACE")

	step := func(msg tea.KeyMsg) {
		next, _ := m.Update(msg)
		m = next.(picker)
	}
	step(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateConfig, m.state)
	require.NotNil(t, m.cfg)

	before := m.cfg.Flight.Thrust
	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.InDelta(t, before*1.1, m.cfg.Flight.Thrust, 1e-6)

	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	for _, r := range "123" {
		step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	step(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 123.0, m.cfg.Flight.Thrust)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = next.(picker)
	assert.True(t, m.chosen)
	require.NotNil(t, cmd)
}
