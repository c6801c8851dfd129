package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/experiment"
	"github.com/san-kum/nonsmooth/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// entry is one menu line: a model preset.
type entry struct {
	model, preset string
}

func (e entry) String() string { return e.model + "/" + e.preset }

type app struct {
	reg     *experiment.Registry
	state   int
	cursor  int
	entries []entry
	err     error

	cfg       *config.Config
	fields    []string
	field     int
	editing   bool
	editBuf   string
	liveModel Model
}

// NewInteractiveApp lists every model preset for selection.
func NewInteractiveApp(reg *experiment.Registry) *app {
	a := &app{reg: reg, state: stateMenu}
	for _, model := range models.Names() {
		for _, p := range config.ListPresets(model) {
			a.entries = append(a.entries, entry{model, p})
		}
	}
	return a
}

func (a app) Init() tea.Cmd { return nil }

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateConfig
			return a, nil
		}
		next, cmd := a.liveModel.Update(msg)
		a.liveModel = next.(Model)
		return a, cmd
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		if a.state == stateMenu {
			return a.menuKey(k)
		}
		return a.configKey(k)
	}
	return a, nil
}

func (a app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter", " ":
		if len(a.entries) == 0 {
			return a, nil
		}
		e := a.entries[a.cursor]
		a.cfg = config.GetPreset(e.model, e.preset)
		a.fields = fieldsOf(a.cfg)
		a.field, a.err = 0, nil
		a.state = stateConfig
	}
	return a, nil
}

// fieldsOf lists the editable fields: step size, duration, integrator and
// the model parameters.
func fieldsOf(cfg *config.Config) []string {
	params := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		params = append(params, k)
	}
	sort.Strings(params)
	return append([]string{"dt", "duration", "integrator"}, params...)
}

func (a app) value(field string) string {
	switch field {
	case "dt":
		return strconv.FormatFloat(a.cfg.Dt, 'g', -1, 64)
	case "duration":
		return strconv.FormatFloat(a.cfg.Duration, 'g', -1, 64)
	case "integrator":
		return a.cfg.Integrator
	}
	return strconv.FormatFloat(a.cfg.Params[field], 'g', -1, 64)
}

func (a *app) set(field string, v float64) {
	switch field {
	case "dt":
		if v > 0 {
			a.cfg.Dt = v
		}
	case "duration":
		if v > 0 {
			a.cfg.Duration = v
		}
	case "integrator":
	default:
		a.cfg.Params[field] = v
	}
}

// cycleIntegrator selects the next driver and switches the event mode to
// the one it runs in.
func (a *app) cycleIntegrator(dir int) {
	names := a.reg.ListIntegrators()
	i := sort.SearchStrings(names, a.cfg.Integrator)
	i = ((i+dir)%len(names) + len(names)) % len(names)
	a.cfg.Integrator = names[i]
	if mode, ok := a.reg.Mode(names[i]); ok {
		a.cfg.Event.Mode = mode.String()
	}
}

func (a app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	field := a.fields[a.field]
	if a.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(a.editBuf, 64); err == nil {
				a.set(field, v)
			}
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				a.editBuf += s
			}
		}
		return a, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "q", "esc":
		a.state = stateMenu
	case "up", "k":
		if a.field > 0 {
			a.field--
		}
	case "down", "j":
		if a.field < len(a.fields)-1 {
			a.field++
		}
	case "left", "h":
		if field == "integrator" {
			a.cycleIntegrator(-1)
		}
	case "right", "l":
		if field == "integrator" {
			a.cycleIntegrator(1)
		}
	case "enter", " ":
		if field != "integrator" {
			a.editing, a.editBuf = true, a.value(field)
		}
	case "s":
		live, err := NewModel(a.cfg.Clone(), a.reg)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.liveModel, a.state, a.err = live, stateSim, nil
		return a, a.liveModel.Init()
	}
	return a, nil
}

func (a app) View() string {
	switch a.state {
	case stateConfig:
		return a.viewConfig()
	case stateSim:
		return a.liveModel.View() + "\n" + idleStyle.Render("esc: back to settings")
	}
	return a.viewMenu()
}

func (a app) line(selected bool, name, value string, width int) string {
	if selected {
		return fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), nameStyle.Render(fmt.Sprintf("%-*s", width, name)), valueStyle.Render(value))
	}
	return fmt.Sprintf("      %s  %s\n", idleStyle.Render(fmt.Sprintf("%-*s", width, name)), idleStyle.Render(value))
}

func hints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

func (a app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("NONSMOOTH") + "\n    " + subStyle.Render("contact dynamics workbench") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, e := range a.entries {
		b.WriteString(a.line(i == a.cursor, e.String(), models.Describe(e.model), 20))
	}
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (a app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(a.cfg.Model)) + "\n    " + subStyle.Render(models.Describe(a.cfg.Model)) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, f := range a.fields {
		v := a.value(f)
		if a.editing && i == a.field {
			v = a.editBuf + "_"
		}
		b.WriteString(a.line(i == a.field, f, v, 12))
	}
	if a.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(a.err.Error()) + "\n")
	}
	b.WriteString(hints("j/k", "select", "enter", "edit", "h/l", "integrator", "s", "start", "esc", "back"))
	return b.String()
}

// RunInteractive opens the preset browser.
func RunInteractive(reg *experiment.Registry) error {
	_, err := tea.NewProgram(NewInteractiveApp(reg), tea.WithAltScreen()).Run()
	return err
}
