package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/atomsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Axis selects one Cartesian component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func (a Axis) String() string { return [...]string{"x", "y", "z"}[a] }

func (a Axis) of(v r3.Vec) float64 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	}
	return v.X
}

// PhaseSpace holds the positions and velocities of a snapshot along one
// axis.
type PhaseSpace struct {
	Axis     Axis
	Position []float64
	Velocity []float64
}

// NewPhaseSpace projects atoms onto axis. Dark atoms are skipped unless
// includeDark is set.
func NewPhaseSpace(atoms []sim.AtomState, axis Axis, includeDark bool) *PhaseSpace {
	ps := &PhaseSpace{
		Axis:     axis,
		Position: make([]float64, 0, len(atoms)),
		Velocity: make([]float64, 0, len(atoms)),
	}
	for _, a := range atoms {
		if a.Dark && !includeDark {
			continue
		}
		ps.Position = append(ps.Position, axis.of(a.Position))
		ps.Velocity = append(ps.Velocity, axis.of(a.Velocity))
	}
	return ps
}

func (p *PhaseSpace) Len() int { return len(p.Position) }

// Moments are the second-order statistics of a phase space.
type Moments struct {
	MeanPosition float64
	MeanVelocity float64
	SigmaX       float64
	SigmaV       float64
	// Correlation is the normalised position/velocity covariance.
	Correlation float64
	// Emittance is the rms area sqrt(<x²><v²> − <xv>²) about the means.
	Emittance float64
}

// Moments returns the phase-space statistics. Fewer than two points give
// zero widths.
func (p *PhaseSpace) Moments() Moments {
	var m Moments
	if p.Len() == 0 {
		return m
	}
	m.MeanPosition = stat.Mean(p.Position, nil)
	m.MeanVelocity = stat.Mean(p.Velocity, nil)
	if p.Len() < 2 {
		return m
	}

	varX := stat.PopVariance(p.Position, nil)
	varV := stat.PopVariance(p.Velocity, nil)
	cov := stat.Covariance(p.Position, p.Velocity, nil) * float64(p.Len()-1) / float64(p.Len())

	m.SigmaX = math.Sqrt(varX)
	m.SigmaV = math.Sqrt(varV)
	if m.SigmaX > 0 && m.SigmaV > 0 {
		m.Correlation = cov / (m.SigmaX * m.SigmaV)
	}
	m.Emittance = math.Sqrt(math.Max(varX*varV-cov*cov, 0))
	return m
}

// PhasePortrait draws the phase space as a width x height character plot
// with position across and velocity up. Axes are drawn where zero is in
// view.
func PhasePortrait(p *PhaseSpace, width, height int) string {
	if p.Len() == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := bounds(p.Position)
	minY, maxY := bounds(p.Velocity)
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	toCol := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	if minX <= 0 && maxX >= 0 {
		col := toCol(0)
		for row := range grid {
			grid[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := toRow(0)
		for col := range grid[row] {
			if grid[row][col] == '│' {
				grid[row][col] = '┼'
			} else {
				grid[row][col] = '─'
			}
		}
	}
	for i := range p.Position {
		col, row := toCol(p.Position[i]), toRow(p.Velocity[i])
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}
