package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory builds a fresh simulation. The live view calls it at start and
// on every restart.
type Factory func() (*sim.Simulation, error)

// Model steps a simulation on every frame and renders the atom cloud
// together with the sampled metrics.
type Model struct {
	factory       Factory
	sim           *sim.Simulation
	name          string
	total         uint64
	stepsPerFrame int
	canvas        *Canvas
	camera        *Camera
	scene         Scene
	theme         Theme
	styles        palette
	running       bool
	err           error
	values        map[string]float64
	names         []string
	plotted       int
	history       map[string][]float64
	showHelp      bool
}

// NewModel builds the first simulation from factory. stepsPerFrame is the
// number of steps dispatched per rendered frame.
func NewModel(factory Factory, stepsPerFrame int) (Model, error) {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	m := Model{
		factory:       factory,
		stepsPerFrame: stepsPerFrame,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		theme:         Themes[0],
		styles:        newPalette(Themes[0]),
		running:       true,
	}
	if err := m.restart(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) restart() error {
	s, err := m.factory()
	if err != nil {
		return err
	}
	cfg := s.Config()
	m.sim = s
	m.name = cfg.Name
	if m.name == "" {
		m.name = "atomsim"
	}
	m.total = uint64(cfg.Steps)
	m.camera = NewCamera(sceneExtent(cfg))
	m.scene = Scene{Beams: beamAxes(cfg)}
	m.err = nil
	m.history = make(map[string][]float64)
	m.observe()

	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	m.names = names
	if m.plotted >= len(m.names) {
		m.plotted = 0
	}
	return nil
}

// sceneExtent is the half-width of the region drawn around the origin.
func sceneExtent(cfg *config.Config) float64 {
	extent := 0.0
	for _, s := range cfg.Atoms.PositionSpread {
		extent = math.Max(extent, 3*s)
	}
	for _, p := range cfg.Atoms.Position {
		extent = math.Max(extent, 1.5*math.Abs(p))
	}
	if extent == 0 {
		extent = cfg.Capture.Radius
	}
	if extent == 0 {
		extent = 5e-3
	}
	return extent
}

func beamAxes(cfg *config.Config) []BeamAxis {
	axes := make([]BeamAxis, 0, len(cfg.CoolingBeams)+len(cfg.DipoleBeams))
	for _, b := range cfg.CoolingBeams {
		axes = append(axes, BeamAxis{Origin: b.Intersection.R3(), Direction: r3.Unit(b.Direction.R3())})
	}
	for _, b := range cfg.DipoleBeams {
		axes = append(axes, BeamAxis{Origin: b.Intersection.R3(), Direction: r3.Unit(b.Direction.R3())})
	}
	return axes
}

// Cloud draws atoms and the beam axes of cfg on a new w x h canvas, seen
// from the default camera.
func Cloud(cfg *config.Config, atoms []sim.AtomState, w, h int) *Canvas {
	c := NewCanvas(w, h)
	scene := Scene{Beams: beamAxes(cfg), Atoms: make([]r3.Vec, len(atoms))}
	for i, a := range atoms {
		scene.Atoms[i] = a.Position
	}
	Render(c, NewCamera(sceneExtent(cfg)), scene)
	return c
}

func (m *Model) observe() {
	m.values = m.sim.Observe()
	for name, v := range m.values {
		h := append(m.history[name], v)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[name] = h
	}

	atoms := sim.Snapshot(m.sim.World())
	m.scene.Atoms = make([]r3.Vec, 0, len(atoms))
	for _, a := range atoms {
		m.scene.Atoms = append(m.scene.Atoms, a.Position)
	}
}

// Done reports whether the configured number of steps has run.
func (m Model) Done() bool { return m.sim.Steps() >= m.total }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and advances the simulation on each tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.restart(); err != nil {
				m.err = err
			}
			m.running = true
		case "tab":
			if len(m.names) > 0 {
				m.plotted = (m.plotted + 1) % len(m.names)
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newPalette(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running && m.err == nil && !m.Done() {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame && !m.Done(); i++ {
		if err := m.sim.Step(context.Background()); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.observe()
}

// View renders the atom cloud beside the statistics panel.
func (m Model) View() string {
	m.canvas.Clear()
	Render(m.canvas, m.camera, m.scene)
	cloud := m.styles.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.styles.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	row := func(label, value string) {
		s.WriteString(m.styles.label.Render(label) + m.styles.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d / %d", m.sim.Steps(), m.total))
	row("Time", fmt.Sprintf("%.3f ms", m.sim.Time()*1e3))
	row("Atoms", fmt.Sprintf("%d", len(m.scene.Atoms)))
	progress := 1.0
	if m.total > 0 {
		progress = float64(m.sim.Steps()) / float64(m.total)
	}
	s.WriteString(m.styles.spark.Render(ProgressBar(progress, 30)) + "\n\n")

	for _, name := range m.names {
		row(name, fmt.Sprintf("%.4g", m.values[name]))
		s.WriteString(strings.Repeat(" ", 16) + m.styles.spark.Render(Sparkline(m.history[name], 24)) + "\n")
	}

	if len(m.names) > 0 {
		name := m.names[m.plotted]
		if h := m.history[name]; len(h) > 1 {
			chart := asciigraph.Plot(h, asciigraph.Height(6), asciigraph.Width(36), asciigraph.Caption(name))
			s.WriteString(m.styles.graph.Render(chart) + "\n")
		}
	}

	s.WriteString(m.styles.help.Render(Separator(30) + "\nSP:Pause R:Restart Q:Quit\nTAB:Metric T:Theme ?:Help"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, cloud, m.styles.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + body
	}
	return body
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.failed.Render("FAILED: " + m.err.Error())
	case m.Done():
		return m.styles.status.Render("FINISHED")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.status.Render("RUNNING")
	}
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Restart simulation       ║
║  Q        - Quit                     ║
║  Tab      - Cycle plotted metric     ║
║  T        - Cycle themes             ║
║  X/Y/Z    - Rotate camera            ║
║  +/-      - Zoom                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
