package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/odeiv/internal/ivp"
)

const (
	graphWidth      = 64
	graphHeight     = 8
	historyCapacity = 600
	frameRate       = 60
)

type TickMsg time.Time

// Live is a bubbletea model that advances a driver by a slice of
// simulated time per display frame.
type Live struct {
	name   string
	d      *ivp.Driver
	y      []float64
	y0     []float64
	t0, t1 float64
	hstart float64
	frameT float64

	t        float64
	running  bool
	done     bool
	err      error
	selected int
	history  []float64
}

// NewLive prepares a live view. timeScale is simulated time per wall
// second; 1 plays in real time.
func NewLive(name string, d *ivp.Driver, y0 []float64, t0, t1, timeScale float64) Live {
	if timeScale <= 0 {
		timeScale = 1
	}
	return Live{
		name:    name,
		d:       d,
		y:       append([]float64(nil), y0...),
		y0:      append([]float64(nil), y0...),
		t0:      t0,
		t1:      t1,
		hstart:  d.H(),
		frameT:  timeScale / frameRate,
		t:       t0,
		running: true,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Live) Init() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done && m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(m.y)
			m.history = m.history[:0]
		case "+", "=":
			m.frameT *= 2
		case "-", "_":
			m.frameT /= 2
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.step()
		}
		return m, tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step advances the solution by one frame of simulated time.
func (m *Live) step() {
	target := m.t + m.frameT
	if target >= m.t1 {
		target = m.t1
	}
	if err := m.d.Apply(&m.t, target, m.y); err != nil {
		m.err = err
		m.running = false
		return
	}
	if m.t >= m.t1 {
		m.done = true
		m.running = false
	}

	m.history = append(m.history, m.y[m.selected])
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Live) reset() {
	m.t = m.t0
	copy(m.y, m.y0)
	m.history = m.history[:0]
	m.done = false
	m.err = nil
	m.running = true
	_ = m.d.ResetHStart(m.hstart)
}

func (m Live) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errStyle.Render(fmt.Sprintf("FAILED: %v", m.err)) + "\n")
	case m.done:
		s.WriteString(statusStyle.Render("DONE") + "\n")
	case m.running:
		s.WriteString(statusStyle.Render("RUNNING") + "\n")
	default:
		s.WriteString(statusStyle.Render("PAUSED") + "\n")
	}

	if len(m.history) > 1 {
		chart := PlotSeries(m.history, graphWidth, graphHeight, fmt.Sprintf("y%d", m.selected))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.4f / %.4f", m.t, m.t1)) + "\n")
	s.WriteString(labelStyle.Render("Step size") + valueStyle.Render(fmt.Sprintf("%.3g", m.d.H())) + "\n")
	s.WriteString(labelStyle.Render("Order") + valueStyle.Render(fmt.Sprintf("%d", m.d.Stepper().Order())) + "\n")
	s.WriteString(labelStyle.Render("Accepted") + valueStyle.Render(fmt.Sprintf("%d", m.d.Count())) + "\n")
	s.WriteString(labelStyle.Render("Failed") + valueStyle.Render(fmt.Sprintf("%d", m.d.FailedSteps())) + "\n")

	s.WriteString(helpStyle.Render("SP:Pause R:Reset TAB:Component +/-:Speed Q:Quit"))
	return s.String()
}
