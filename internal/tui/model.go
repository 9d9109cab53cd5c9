// Package tui draws the panel in the terminal and turns keys and mouse
// gestures into panel interactions.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/rig-panel/internal/channels"
	"github.com/thatsimonsguy/rig-panel/internal/config"
	"github.com/thatsimonsguy/rig-panel/internal/dispatch"
	"github.com/thatsimonsguy/rig-panel/internal/model"
	"github.com/thatsimonsguy/rig-panel/internal/panel"
	"github.com/thatsimonsguy/rig-panel/internal/sequence"
)

var _ tea.Model = (*Model)(nil)

const (
	tickEvery = 200 * time.Millisecond
	pwmStep   = 5
)

type Deps struct {
	Panel    *panel.Panel
	Sequence *sequence.Sequence
	Rules    *channels.RuleSet
	Controls []model.Control
}

type Model struct {
	deps     Deps
	byKey    map[string]model.Control
	spinner  spinner.Model
	bar      progress.Model
	alerts   []AlertMsg
	notice   string
	held     string // button held from the keyboard
	pressed  string // button held with the mouse
	focusPWM string
	rows     map[int]model.Control
	width    int
	height   int
	quitting bool
}

func New(deps Deps) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		deps:    deps,
		byKey:   make(map[string]model.Control),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage()),
		rows:    make(map[int]model.Control),
	}
	for _, c := range deps.Controls {
		if c.Key != "" {
			m.byKey[c.Key] = c
		}
		if c.Kind == model.KindPWM && m.focusPWM == "" {
			m.focusPWM = c.ElementID()
		}
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(tickEvery))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tick(tickEvery)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case AlertMsg:
		m.alerts = append(m.alerts, msg)
		m.releaseAll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if len(m.alerts) == 0 {
			m.handleMouse(msg)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.quit()
	}

	// the alert swallows everything until it is acknowledged
	if len(m.alerts) > 0 {
		switch key {
		case "enter", "esc", " ":
			m.alerts = m.alerts[1:]
		}
		return m, nil
	}

	switch key {
	case config.KeyQuit:
		return m.quit()
	case "esc":
		m.releaseAll()
		return m, nil
	case "left", "right":
		m.nudgePWM(key)
		return m, nil
	case "enter":
		if m.focusPWM != "" {
			m.report(m.deps.Panel.ReleaseSlider(m.focusPWM))
		}
		return m, nil
	case config.KeyGeneral:
		m.report(m.deps.Sequence.PressGeneral())
		return m, nil
	case config.KeyStartMotor:
		m.report(m.deps.Sequence.StartMotor())
		return m, nil
	case config.KeyStartTest:
		m.report(m.deps.Sequence.StartTest())
		return m, nil
	case config.KeyReset:
		m.report(m.deps.Sequence.Reset())
		return m, nil
	case config.KeyFuel:
		m.cycle(sequence.GroupFuel)
		return m, nil
	case config.KeyHydrogen:
		m.cycle(sequence.GroupHydrogen)
		return m, nil
	}

	c, ok := m.byKey[key]
	if !ok {
		return m, nil
	}
	m.activate(c)
	return m, nil
}

func (m *Model) activate(c model.Control) {
	id := c.ElementID()
	switch c.Kind {
	case model.KindToggle:
		_, err := m.deps.Panel.Toggle(id)
		m.report(err)
	case model.KindButton:
		// terminals report no key-up, so a second press lets go
		if m.held == id {
			m.held = ""
			m.report(m.deps.Panel.Release(id))
			return
		}
		if m.held != "" {
			m.report(m.deps.Panel.Release(m.held))
		}
		m.held = id
		m.report(m.deps.Panel.Press(id))
	case model.KindPWM:
		m.focusPWM = id
	case model.KindLog:
		m.report(m.deps.Panel.Click(id))
	}
}

func (m *Model) nudgePWM(key string) {
	if m.focusPWM == "" {
		return
	}
	value, _ := m.deps.Panel.Slider(m.focusPWM)
	if key == "left" {
		value -= pwmStep
	} else {
		value += pwmStep
	}
	m.report(m.deps.Panel.Slide(m.focusPWM, value))
}

func (m *Model) cycle(group string) {
	current, err := m.deps.Sequence.Selection(group)
	if err != nil {
		m.report(err)
		return
	}
	opts := sequence.Options(group)
	next := opts[0]
	for i, o := range opts {
		if o == current {
			next = opts[(i+1)%len(opts)]
		}
	}
	m.report(m.deps.Sequence.Select(group, next))
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		c, ok := m.rows[msg.Y]
		if !ok {
			return
		}
		if c.Kind == model.KindButton {
			m.pressed = c.ElementID()
			m.report(m.deps.Panel.Press(m.pressed))
			return
		}
		m.activate(c)

	case tea.MouseActionMotion:
		if m.pressed == "" {
			return
		}
		if c, ok := m.rows[msg.Y]; !ok || c.ElementID() != m.pressed {
			m.report(m.deps.Panel.PointerLeave(m.pressed))
			m.pressed = ""
		}

	case tea.MouseActionRelease:
		if m.pressed != "" {
			m.report(m.deps.Panel.Release(m.pressed))
			m.pressed = ""
		}
	}
}

func (m *Model) releaseAll() {
	if m.held != "" {
		m.report(m.deps.Panel.Release(m.held))
		m.held = ""
	}
	if m.pressed != "" {
		m.report(m.deps.Panel.Release(m.pressed))
		m.pressed = ""
	}
}

// report shows a rejected interaction on the status line.
func (m *Model) report(err error) {
	if err == nil {
		m.notice = ""
		return
	}
	if !errors.Is(err, sequence.ErrInvalidTransition) && !errors.Is(err, sequence.ErrNoSelection) {
		log.Warn().Err(err).Msg("Panel interaction failed")
	}
	m.notice = err.Error()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.releaseAll()
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.alerts) > 0 {
		return m.viewAlert()
	}

	var lines []string
	add := func(s string) { lines = append(lines, s) }

	m.rows = make(map[int]model.Control)

	add(styleTitle.Render("PAINEL DE TESTE"))
	add("")
	add(styleSection.Render("Canais ADC"))
	for _, id := range model.AllChannels() {
		text, _ := m.deps.Panel.Text(id.ElementID())
		add(fmt.Sprintf("  %-8s %-24s %s", strings.ToUpper(id.ElementID()), m.deps.Rules.Tag(id), classStyle(text.Class).Render(text.Text)))
	}

	add("")
	add(styleSection.Render("Saídas"))
	for _, c := range m.deps.Controls {
		m.rows[len(lines)] = c
		add(m.controlLine(c))
	}

	add("")
	add(styleSection.Render("Sequência"))
	for _, l := range m.sequenceLines() {
		add(l)
	}

	add("")
	if m.notice != "" {
		add(styleWarn.Render(m.notice))
	}
	add(styleDim.Render("teclas da saída: acionar  ←/→ enter: PWM  g s t r: sequência  f h: seleção  esc: soltar  q: sair"))

	return strings.Join(lines, "\n")
}

func (m *Model) controlLine(c model.Control) string {
	id := c.ElementID()
	key := styleKey.Render(fmt.Sprintf("[%s]", c.Key))
	label := fmt.Sprintf("%-32s", c.Label)

	switch c.Kind {
	case model.KindToggle:
		checked, _ := m.deps.Panel.Checked(id)
		if checked {
			return fmt.Sprintf("  %s %s %s", key, label, styleOn.Render("[LIGADO]"))
		}
		return fmt.Sprintf("  %s %s %s", key, label, styleOff.Render("[DESLIGADO]"))

	case model.KindButton:
		if m.deps.Panel.Active(id) {
			return fmt.Sprintf("  %s %s %s", key, styleHeld.Render(label), styleOn.Render("PRESSIONADO"))
		}
		return fmt.Sprintf("  %s %s %s", key, label, styleOff.Render("solto"))

	case model.KindPWM:
		value, _ := m.deps.Panel.Slider(id)
		pct, _ := m.deps.Panel.Text(c.GPIO.SliderLabel())
		marker := " "
		if id == m.focusPWM {
			marker = ">"
		}
		return fmt.Sprintf("%s %s %s %s %s", marker, key, label, m.bar.ViewAs(float64(value)/100), pct.Text)

	case model.KindLog:
		status, _ := m.deps.Panel.Text(model.LogStatusElement)
		text := classStyle(status.Class).Render(status.Text)
		if status.Class == dispatch.ClassPending {
			text = m.spinner.View() + " " + text
		}
		return fmt.Sprintf("  %s %s %s", key, label, text)
	}
	return ""
}

func (m *Model) sequenceLines() []string {
	snap := m.deps.Sequence.Snapshot()
	fuel, _ := m.deps.Sequence.Selection(sequence.GroupFuel)
	hydrogen, _ := m.deps.Sequence.Selection(sequence.GroupHydrogen)

	indicators := make([]string, 0, len(snap.Indicators))
	for _, name := range snap.Indicators {
		indicators = append(indicators, styleOn.Render(name))
	}
	if len(indicators) == 0 {
		indicators = append(indicators, styleDim.Render("nenhum"))
	}

	return []string{
		fmt.Sprintf("  Estado: %s   Combustível: %s   Hidrogênio: %s", styleKey.Render(snap.State.String()), orDash(fuel), orDash(hydrogen)),
		"  Indicadores: " + strings.Join(indicators, " "),
		fmt.Sprintf("  Tempo de teste: %d", snap.Elapsed),
	}
}

func (m *Model) viewAlert() string {
	a := m.alerts[0]
	body := lipgloss.JoinVertical(lipgloss.Left,
		styleAlarm.Render(a.Title),
		"",
		a.Message,
		"",
		styleDim.Render("enter: OK"),
	)
	box := styleModal.Render(body)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
