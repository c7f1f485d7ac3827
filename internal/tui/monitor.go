package tui

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/engine"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 120
	harmonyStep     = 0.05
)

// Engine is the part of *engine.Engine the monitor drives.
type Engine interface {
	Start(context.Context) error
	Stop() error
	GetState() engine.State
	UpdatePhysicsParameters(dynamo.PhysicsPatch) error
	SetHarmony(float64) error
	AddParticle(pos, vel dynamo.Vec2, mass, radius float64) (dynamo.ParticleID, error)
	ClearParticles() error
}

// Timeline is the part of *storyboard.Manager the monitor drives.
type Timeline interface {
	Play(start float64) error
	Pause() error
	Playing() bool
	CurrentTime() float64
	Duration() float64
}

type TickMsg time.Time

type param struct {
	name  string
	get   func(dynamo.PhysicsParameters) float64
	patch func(float64) dynamo.PhysicsPatch
}

var params = []param{
	{"gravity", func(p dynamo.PhysicsParameters) float64 { return p.Gravity },
		func(v float64) dynamo.PhysicsPatch { return dynamo.PhysicsPatch{Gravity: &v} }},
	{"friction", func(p dynamo.PhysicsParameters) float64 { return p.Friction },
		func(v float64) dynamo.PhysicsPatch { return dynamo.PhysicsPatch{Friction: &v} }},
	{"elasticity", func(p dynamo.PhysicsParameters) float64 { return p.Elasticity },
		func(v float64) dynamo.PhysicsPatch { return dynamo.PhysicsPatch{Elasticity: &v} }},
	{"air", func(p dynamo.PhysicsParameters) float64 { return p.AirResistance },
		func(v float64) dynamo.PhysicsPatch { return dynamo.PhysicsPatch{AirResistance: &v} }},
	{"time_scale", func(p dynamo.PhysicsParameters) float64 { return p.TimeScale },
		func(v float64) dynamo.PhysicsPatch { return dynamo.PhysicsPatch{TimeScale: &v} }},
}

// Model is the bubbletea model of the monitor.
type Model struct {
	ctx      context.Context
	engine   Engine
	timeline Timeline
	title    string
	rng      *rand.Rand

	state    engine.State
	canvas   *Canvas
	freqHist []float64
	selected int
	message  string
	showHelp bool
}

func NewModel(ctx context.Context, e Engine, timeline Timeline, title string, seed int64) Model {
	return Model{
		ctx:      ctx,
		engine:   e,
		timeline: timeline,
		title:    title,
		rng:      rand.New(rand.NewSource(seed)),
		state:    e.GetState(),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		freqHist: make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.toggleEngine()
		case "tab":
			m.selected = (m.selected + 1) % len(params)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "h":
			m.nudgeHarmony(-harmonyStep)
		case "l":
			m.nudgeHarmony(harmonyStep)
		case "a":
			m.dropParticle()
		case "c":
			m.report(m.engine.ClearParticles())
		case "p":
			m.toggleTimeline()
		case "?":
			m.showHelp = !m.showHelp
		}
		m.state = m.engine.GetState()
	case TickMsg:
		m.state = m.engine.GetState()
		m.freqHist = append(m.freqHist, m.state.Audio.Frequency)
		if len(m.freqHist) > historyCapacity {
			m.freqHist = m.freqHist[1:]
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) toggleEngine() {
	if m.state.Running {
		m.report(m.engine.Stop())
		return
	}
	m.report(m.engine.Start(m.ctx))
}

func (m *Model) toggleTimeline() {
	if m.timeline == nil {
		m.message = "no storyboard loaded"
		return
	}
	if m.timeline.Playing() {
		m.report(m.timeline.Pause())
		return
	}
	m.report(m.timeline.Play(m.timeline.CurrentTime()))
}

func (m *Model) adjustParam(factor float64) {
	p := params[m.selected]
	v := p.get(m.state.Physics) * factor
	if v == 0 && factor > 1 {
		v = 0.01
	}
	if p.name == "friction" || p.name == "elasticity" {
		v = math.Min(v, 1)
	}
	m.report(m.engine.UpdatePhysicsParameters(p.patch(v)))
}

func (m *Model) nudgeHarmony(d float64) {
	v := math.Max(0, math.Min(1, m.state.Audio.Harmony+d))
	m.report(m.engine.SetHarmony(v))
}

func (m *Model) dropParticle() {
	b := m.state.Bounds
	r := 4 + m.rng.Float64()*8
	pos := dynamo.V(
		b.MinX+r+m.rng.Float64()*(b.Width()-2*r),
		b.MaxY-r-m.rng.Float64()*(b.Height()/2-r),
	)
	vel := dynamo.V(m.rng.Float64()*80-40, 0)
	_, err := m.engine.AddParticle(pos, vel, r*r/16, r)
	m.report(err)
}

func (m *Model) report(err error) {
	if err != nil {
		m.message = err.Error()
		return
	}
	m.message = ""
}

// project maps simulation coordinates onto canvas dots.
func (m *Model) project(p dynamo.Vec2) (int, int) {
	b := m.state.Bounds
	w, h := float64(m.canvas.Width*2-1), float64(m.canvas.Height*4-1)
	x := (p.X - b.MinX) / b.Width() * w
	// rows grow downward, so MinY (the floor) lands on the last row
	y := (b.MaxY - p.Y) / b.Height() * h
	return int(math.Round(x)), int(math.Round(y))
}

func (m *Model) draw() {
	m.canvas.Clear()
	b := m.state.Bounds
	if b.Width() <= 0 || b.Height() <= 0 {
		return
	}
	scale := float64(m.canvas.Width*2) / b.Width()
	for _, p := range m.state.Snapshot.Particles {
		x, y := m.project(p.Position)
		m.canvas.DrawCircle(x, y, p.Radius*scale)
		tx, ty := m.project(p.Position.Add(p.Velocity.Scale(0.1)))
		m.canvas.DrawLine(x, y, tx, ty)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(strings.TrimRight(m.canvas.String(), "\n"))

	s := m.state
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case s.Crashed:
		b.WriteString(statusCrashed.Render("CRASHED") + "\n")
	case s.Running:
		b.WriteString(statusRunning.Render("RUNNING") + "\n")
	default:
		b.WriteString(statusStopped.Render("STOPPED") + "\n")
	}

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", s.Snapshot.Time))
	row("Particles", fmt.Sprintf("%d", len(s.Snapshot.Particles)))
	row("Contacts", fmt.Sprintf("%d", len(s.Snapshot.Contacts)))
	row("Energy", fmt.Sprintf("%.1f", s.Energy.Total))
	b.WriteString("\n")
	row("Frequency", fmt.Sprintf("%.1f Hz", s.Audio.Frequency))
	row("Amplitude", fmt.Sprintf("%.2f", s.Audio.Amplitude))
	row("Cutoff", fmt.Sprintf("%.2f", s.Audio.FilterCutoff))
	row("Reverb", fmt.Sprintf("%.2f", s.Audio.ReverbAmount))
	row("Harmony", fmt.Sprintf("%.2f", s.Audio.Harmony))
	row("Waveform", s.Audio.Waveform.String())
	if m.timeline != nil {
		mark := "paused"
		if m.timeline.Playing() {
			mark = "playing"
		}
		row("Storyboard", fmt.Sprintf("%.1f/%.1fs %s", m.timeline.CurrentTime(), m.timeline.Duration(), mark))
	}

	b.WriteString("\nPHYSICS\n")
	for i, p := range params {
		line := fmt.Sprintf("%-10s %.3f", p.name, p.get(s.Physics))
		if i == m.selected {
			b.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	if len(m.freqHist) > 1 {
		chart := asciigraph.Plot(m.freqHist, asciigraph.Height(5), asciigraph.Width(26), asciigraph.Caption("Frequency (Hz)"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.message != "" {
		b.WriteString(statusCrashed.Render(m.message) + "\n")
	}
	if m.showHelp {
		b.WriteString(helpStyle.Render("SP:Start/Stop  TAB:Param  ↑↓:Tune\nH/L:Harmony  A:Add  C:Clear\nP:Storyboard  Q:Quit"))
	} else {
		b.WriteString(helpStyle.Render("?:Help  Q:Quit"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
}

// Run blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
