package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/experiment"
	"github.com/san-kum/nonsmooth/internal/system"
)

const (
	width           = 56
	height          = 18
	historyCapacity = 600
	frameRate       = 30
	graphPoints     = 240
	maxContactRows  = 8
)

// Snapshot stores the state at one frame for replay.
type Snapshot struct {
	T                  float64
	Q, U               dynamo.State
	Scene              Scene
	Kinetic, Potential float64
	Stats              system.Stats
}

type TickMsg time.Time

// Model steps a system in real time and renders its bodies, contact states
// and one recorder column.
type Model struct {
	cfg *config.Config
	reg *experiment.Registry

	sys     *system.System
	stepper dynamo.Stepper
	q, u    dynamo.State
	t       float64

	steps, events, unconverged int

	canvas   *Canvas
	bounds   Bounds
	styles   Styles
	running  bool
	done     bool
	err      error
	column   int
	history  []Snapshot
	playHead int
	showHelp bool
}

// NewModel builds the system described by cfg.
func NewModel(cfg *config.Config, reg *experiment.Registry) (Model, error) {
	m := Model{
		cfg:    cfg,
		reg:    reg,
		canvas: NewCanvas(width, height),
		styles: NewStyles(Themes[0]),
	}
	if err := m.load(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// load rebuilds the system from the configuration and commits t = 0.
func (m *Model) load() error {
	exp := experiment.New(m.cfg)
	if err := exp.Setup(m.reg, nil); err != nil {
		return err
	}
	mod := exp.Model()
	m.sys, m.stepper = mod.System, exp.Simulator().Stepper()
	m.q, m.u, m.t = mod.Q0.Clone(), mod.U0.Clone(), 0
	m.steps, m.events, m.unconverged = 0, 0, 0
	m.history = make([]Snapshot, 0, historyCapacity)
	m.bounds = Bounds{}
	m.playHead = -1
	m.running, m.done, m.err = true, false, nil

	if init, ok := m.stepper.(dynamo.Initializer); ok {
		u, err := init.Initialize(m.sys, m.t, m.q, m.u)
		if err != nil {
			return err
		}
		m.u = u
	}
	if err := m.sys.Commit(m.t, m.q, m.u, 0); err != nil {
		return err
	}
	return m.snapshot()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.load(); err != nil {
				m.err = err
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			if n := len(m.sys.Recorder().Columns()); n > 0 {
				m.column = (m.column + 1) % n
			}
		case "shift+tab":
			if n := len(m.sys.Recorder().Columns()); n > 0 {
				m.column = (m.column + n - 1) % n
			}
		case "t":
			m.styles = NewStyles(NextTheme(m.styles.Theme().Name))
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame worth of steps and snapshots the result.
func (m *Model) advance() {
	if m.done || m.err != nil {
		return
	}
	n := max(1, int(math.Round(1/(frameRate*m.cfg.Dt))))
	for i := 0; i < n; i++ {
		if m.t >= m.cfg.Duration-1e-9*m.cfg.Dt {
			m.done = true
			break
		}
		if err := m.step(math.Min(m.cfg.Dt, m.cfg.Duration-m.t)); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	if err := m.snapshot(); err != nil && m.err == nil {
		m.err = err
	}
}

func (m *Model) step(dt float64) error {
	res, err := m.stepper.Step(m.sys, m.t, m.q, m.u, dt)
	if err == nil && (!res.Q.IsValid() || !res.U.IsValid()) {
		err = fmt.Errorf("%w: NaN or Inf in state", dynamo.ErrInvalidState)
	}
	if err != nil {
		return &dynamo.SimulationError{Step: m.steps, Time: m.t, Wrapped: err}
	}
	m.q, m.u = res.Q, res.U
	m.t += res.Dt
	m.steps++
	if res.Event {
		m.events++
	}
	if !res.Converged {
		m.unconverged++
	}
	return m.sys.Commit(m.t, m.q, m.u, res.Dt)
}

func (m *Model) snapshot() error {
	sc, err := Capture(m.sys, m.t, m.q, m.u)
	if err != nil {
		return err
	}
	kin, pot, err := m.sys.Energy(m.t, m.q, m.u)
	if err != nil {
		return err
	}
	m.bounds.Include(sc)
	m.history = append(m.history, Snapshot{
		T: m.t, Q: m.q.Clone(), U: m.u.Clone(), Scene: sc,
		Kinetic: kin, Potential: pot, Stats: m.sys.Stats(),
	})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
		if m.playHead > 0 {
			m.playHead--
		}
	}
	return nil
}

// scrub moves the replay position through the snapshot history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// current returns the snapshot on screen.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	if len(m.history) == 0 {
		return Snapshot{}
	}
	return m.history[len(m.history)-1]
}

func (m Model) status() string {
	last := m.current().T
	if len(m.history) > 0 {
		last = m.history[len(m.history)-1].T
	}
	switch {
	case m.err != nil:
		return m.styles.Alert.Render("FAILED")
	case m.playHead != -1 && !m.running:
		return fmt.Sprintf("REPLAY PAUSED (%.2fs)", m.current().T-last)
	case m.playHead != -1:
		return fmt.Sprintf("REPLAYING (%.2fs)", m.current().T-last)
	case m.done:
		return "DONE"
	case !m.running:
		return "PAUSED"
	}
	return "RUNNING"
}

// graph plots the selected recorder column, skipping NaN rows.
func (m Model) graph() string {
	rec := m.sys.Recorder()
	cols := rec.Columns()
	if len(cols) == 0 {
		return ""
	}
	name := cols[m.column%len(cols)]
	data, err := rec.Column(name)
	if err != nil {
		return ""
	}
	if len(data) > graphPoints {
		data = data[len(data)-graphPoints:]
	}
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) < 2 {
		return m.styles.Label.Render(name + ": no data")
	}
	chart := asciigraph.Plot(vals, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption(name))
	return m.styles.Graph.Render(chart)
}

func (m Model) iterations() []float64 {
	data, err := m.sys.Recorder().Column("solver.iter")
	if err != nil {
		return nil
	}
	return data
}

func (m Model) View() string {
	snap := m.current()
	m.canvas.Clear()
	Draw(m.canvas, snap.Scene, m.bounds)
	view := m.styles.Canvas.Render(m.canvas.String())
	if len(snap.Scene.Bodies) == 0 {
		view = m.styles.Canvas.Render(m.styles.Label.Render("(no bodies)"))
	}

	st := m.styles
	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.cfg.Model)+"  "+m.cfg.Integrator) + "\n")
	s.WriteString(m.status() + "\n")
	s.WriteString(st.ProgressBar(snap.T/m.cfg.Duration, 30) + "\n\n")
	s.WriteString(st.Row("Time", fmt.Sprintf("%.4fs", snap.T)))
	s.WriteString(st.Row("Steps", fmt.Sprintf("%d (%d events, %d unconverged)", m.steps, m.events, m.unconverged)))
	s.WriteString(st.Row("Solver", fmt.Sprintf("%s n=%d it=%d", snap.Stats.Level, snap.Stats.Size, snap.Stats.Iterations)))
	s.WriteString(st.Row("Iterations", Sparkline(m.iterations(), 30)))
	s.WriteString(st.Row("Energy", fmt.Sprintf("T=%.4g V=%.4g", snap.Kinetic, snap.Potential)))

	s.WriteString("\nCONTACTS\n")
	if len(snap.Scene.Contacts) == 0 {
		s.WriteString(st.Label.Render("  (none)") + "\n")
	}
	for i, c := range snap.Scene.Contacts {
		if i == maxContactRows {
			s.WriteString(st.Label.Render(fmt.Sprintf("  +%d more", len(snap.Scene.Contacts)-i)) + "\n")
			break
		}
		s.WriteString(fmt.Sprintf("  %-12s %s g=%s\n", c.Name, st.Status(c.Status), FormatValue(c.Gap)))
	}

	s.WriteString("\n" + m.graph() + "\n")
	if m.err != nil {
		s.WriteString(st.Alert.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.Help.Render("SP:Pause R:Reset Q:Quit T:Theme ?:Help\nTab:Column [ ]:Replay"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, view, st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + body
	}
	return body
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space     - Pause/Resume            ║
║  R         - Rebuild and restart     ║
║  Q         - Quit                    ║
║  Tab       - Next plotted column     ║
║  Shift+Tab - Previous column         ║
║  [ / ]     - Step through replay     ║
║  T         - Cycle themes            ║
║  ?         - Toggle this help        ║
╚══════════════════════════════════════╝`

// Run opens the live view for cfg in the alternate screen.
func Run(cfg *config.Config, reg *experiment.Registry) error {
	m, err := NewModel(cfg, reg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
