package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/experiment"
	"github.com/san-kum/airace/internal/race"
)

const (
	canvasWidth   = 60
	canvasHeight  = 22
	rewardHistory = 200
	maxDelay      = time.Second
	radiusStep    = 5.0
)

// FrameMsg carries a new snapshot to the race view.
type FrameMsg Frame

// DoneMsg reports that the run has stopped.
type DoneMsg struct{ Err error }

// Feed is the experiment observer behind the live view. It snapshots the
// environment every few ticks, paces the run and blocks it while paused.
type Feed struct {
	vis   *Visibility
	every int
	send  func(tea.Msg)

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	closed  bool
	delay   time.Duration
	rewards []float64
}

func NewFeed(every int, delay time.Duration, vis *Visibility) *Feed {
	if every < 1 {
		every = 1
	}
	f := &Feed{vis: vis, every: every, delay: delay, send: func(tea.Msg) {}}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Attach sets where frames go, usually tea.Program.Send.
func (f *Feed) Attach(send func(tea.Msg)) {
	f.mu.Lock()
	f.send = send
	f.mu.Unlock()
}

func (f *Feed) OnTick(tick int, env *race.Environment, results []race.StepResult) {
	f.mu.Lock()
	for _, r := range results {
		if r.Episode != nil {
			f.rewards = append(f.rewards, r.Episode.Reward)
			if len(f.rewards) > rewardHistory {
				f.rewards = f.rewards[1:]
			}
		}
	}
	for f.paused && !f.closed {
		f.cond.Wait()
	}
	send, delay, closed := f.send, f.delay, f.closed
	var frame Frame
	if tick%f.every == 0 && !closed {
		frame = Capture(env, f.vis, f.rewards)
	}
	f.mu.Unlock()

	if closed {
		return
	}
	if tick%f.every == 0 {
		send(FrameMsg(frame))
	}
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (f *Feed) SetPaused(p bool) {
	f.mu.Lock()
	f.paused = p
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *Feed) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// Faster halves the per-tick delay; Slower doubles it.
func (f *Feed) Faster() {
	f.mu.Lock()
	f.delay /= 2
	if f.delay < time.Millisecond {
		f.delay = 0
	}
	f.mu.Unlock()
}

func (f *Feed) Slower() {
	f.mu.Lock()
	switch {
	case f.delay == 0:
		f.delay = time.Millisecond
	case f.delay < maxDelay:
		f.delay *= 2
	}
	f.mu.Unlock()
}

func (f *Feed) Delay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delay
}

// Close releases a paused run and stops further frames.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

type viewMode int

const (
	viewTop viewMode = iota
	viewOrbit
)

// Model is the bubbletea race view.
type Model struct {
	feed   *Feed
	cancel context.CancelFunc
	title  string
	params *config.EnvParams

	frame    Frame
	hasFrame bool
	canvas   *Canvas
	camera   *Camera
	mode     viewMode
	theme    Theme
	st       styles
	spin     int
	done     bool
	err      error
	showHelp bool
}

type Options struct {
	// Every sends a frame once per this many ticks.
	Every int
	// Delay is slept after each tick; zero runs flat out.
	Delay      time.Duration
	Theme      string
	Title      string
	Visibility *Visibility
	// Params, when set, is the store the running environment reads; r/R
	// adjust its checkpoint radius.
	Params *config.EnvParams
}

func NewModel(feed *Feed, cancel context.CancelFunc, opts Options) Model {
	if cancel == nil {
		cancel = func() {}
	}
	title := opts.Title
	if title == "" {
		title = "AIRACE"
	}
	theme := GetTheme(opts.Theme)
	return Model{
		feed:   feed,
		cancel: cancel,
		title:  title,
		params: opts.Params,
		canvas: NewCanvas(canvasWidth, canvasHeight),
		camera: NewCamera(),
		theme:  theme,
		st:     newStyles(theme),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			m.feed.Close()
			return m, tea.Quit
		case " ":
			m.feed.SetPaused(!m.feed.Paused())
		case "+", "=":
			m.feed.Faster()
		case "-", "_":
			m.feed.Slower()
		case "v":
			if m.mode == viewTop {
				m.mode = viewOrbit
			} else {
				m.mode = viewTop
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.ZoomIn()
		case "Z":
			m.camera.ZoomOut()
		case "r":
			m.adjustRadius(radiusStep)
		case "R":
			m.adjustRadius(-radiusStep)
		case "?":
			m.showHelp = !m.showHelp
		}
	case FrameMsg:
		m.frame = Frame(msg)
		m.hasFrame = true
		m.spin++
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) adjustRadius(delta float64) {
	if m.params == nil {
		return
	}
	r := m.params.GetWithDefault(race.ParamCheckpointRadius, 0) + delta
	m.params.Set(race.ParamCheckpointRadius, max(r, 0))
}

func (m Model) View() string {
	if !m.hasFrame {
		return m.st.muted.Render(AnimatedSpinner(m.spin) + " waiting for the first frame...")
	}

	m.draw()
	left := m.st.panel.Render(m.st.track.Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(GradientText(m.title, m.theme.TitleFrom, m.theme.TitleTo) + "\n\n")
	s.WriteString(m.statusLine() + "\n")
	s.WriteString(m.st.label.Render("Tick") + m.st.value.Render(fmt.Sprintf("%d", m.frame.Tick)) + "\n")
	s.WriteString(m.st.label.Render("Time") + m.st.value.Render(fmt.Sprintf("%.2fs", m.frame.Time)) + "\n")
	s.WriteString(m.st.label.Render("Delay") + m.st.value.Render(m.feed.Delay().String()) + "\n")
	if m.params != nil {
		r := m.params.GetWithDefault(race.ParamCheckpointRadius, 0)
		s.WriteString(m.st.label.Render("Radius") + m.st.value.Render(fmt.Sprintf("%.0fm", r)) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(m.st.header.Render("STANDINGS") + "\n")
	s.WriteString(m.standings() + "\n")

	if len(m.frame.Rewards) > 1 {
		chart := asciigraph.Plot(m.frame.Rewards,
			asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("episode reward"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString("\n" + m.st.muted.Render(
			"space pause  +/- speed  v view\nt theme  x/y rotate  z/Z zoom\nr/R checkpoint radius  q quit"))
	} else {
		s.WriteString("\n" + m.st.muted.Render("? help  q quit"))
	}

	right := m.st.panel.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) statusLine() string {
	mode := "race"
	if m.frame.Training {
		mode = "training"
	}
	var status string
	switch {
	case m.done && m.err != nil && !errors.Is(m.err, context.Canceled):
		status = m.st.bad.Render("ERROR " + m.err.Error())
	case m.done:
		status = m.st.good.Render("FINISHED, press q")
	case m.feed.Paused():
		status = m.st.warn.Render("PAUSED")
	default:
		status = m.st.good.Render(AnimatedSpinner(m.spin) + " RUNNING")
	}
	return m.st.label.Render("Mode") + m.st.value.Render(mode) + "  " + status
}

func (m Model) standings() string {
	colors := make(map[string]lipgloss.Color, len(m.frame.Agents))
	for i, a := range m.frame.Agents {
		colors[a.Name] = m.theme.AgentColor(i)
	}
	gates := len(m.frame.Gates)

	var b strings.Builder
	for rank, a := range m.frame.Standings() {
		name := lipgloss.NewStyle().Foreground(colors[a.Name]).Render(fmt.Sprintf("%-10.10s", a.Name))
		progress := 0.0
		if gates > 0 {
			progress = float64(a.Next) / float64(gates)
		}
		line := fmt.Sprintf("%d %s %s %3d %+7.3f", rank+1, name, ProgressBar(progress, 8), a.Checkpoints, a.Reward)
		switch {
		case a.Exploding:
			line += " " + m.st.bad.Render("crash")
		case a.Frozen:
			line += " " + m.st.warn.Render("frozen")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) draw() {
	m.canvas.Clear()
	switch m.mode {
	case viewOrbit:
		Render3D(m.canvas, SceneWireframe(m.frame), m.camera)
	default:
		drawTopDown(m.canvas, m.frame)
	}
}

// drawTopDown plots the course on the ground plane, X to the right and Z
// up the screen.
func drawTopDown(c *Canvas, f Frame) {
	if len(f.Gates) == 0 {
		return
	}
	minX, minZ := f.Gates[0].Position.X(), f.Gates[0].Position.Z()
	maxX, maxZ := minX, minZ
	for _, g := range f.Gates {
		p := g.Position
		minX, maxX = min(minX, p.X()-g.Radius), max(maxX, p.X()+g.Radius)
		minZ, maxZ = min(minZ, p.Z()-g.Radius), max(maxZ, p.Z()+g.Radius)
	}
	vp := FitViewport(c, minX, minZ, maxX, maxZ, 2)

	for i, g := range f.Gates {
		next := f.Gates[(i+1)%len(f.Gates)]
		x0, y0 := vp.Map(g.Position.X(), g.Position.Z())
		x1, y1 := vp.Map(next.Position.X(), next.Position.Z())
		c.DrawLine(x0, y0, x1, y1)
		c.DrawCircle(x0, y0, max(1, vp.Scale(g.Radius)))
		if g.IsFinish {
			c.FillBlock(x0, y0, 1)
		}
	}

	for _, a := range f.Agents {
		x, y := vp.Map(a.Position.X(), a.Position.Z())
		switch {
		case a.Exploding:
			c.DrawCross(x, y, 3)
		case a.Visible:
			c.FillBlock(x, y, 1)
			hx, hy := vp.Map(a.Position.X()+a.Heading.X()*40, a.Position.Z()+a.Heading.Z()*40)
			c.DrawLine(x, y, hx, hy)
		}
	}
}

// Run drives runner under the live view until the run ends or the user
// quits. Quitting early is not an error; the partial result is returned.
func Run(ctx context.Context, runner *experiment.Runner, opts Options) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := NewFeed(opts.Every, opts.Delay, opts.Visibility)
	runner.AddObserver(feed)

	p := tea.NewProgram(NewModel(feed, cancel, opts), tea.WithAltScreen())
	feed.Attach(func(msg tea.Msg) { p.Send(msg) })

	type outcome struct {
		res *experiment.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := runner.Run(ctx)
		p.Send(DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	_, uiErr := p.Run()
	cancel()
	feed.Close()
	out := <-done

	if uiErr != nil {
		return out.res, uiErr
	}
	if errors.Is(out.err, context.Canceled) {
		return out.res, nil
	}
	return out.res, out.err
}
