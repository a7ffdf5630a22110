package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orbiting perspective camera looking at the origin. Scene
// coordinates are divided by Extent before projection, so a cube of side
// 2*Extent fills about two thirds of the screen.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Extent           float64
	Distance         float64
}

func NewCamera(extent float64) *Camera {
	if extent <= 0 {
		extent = 1
	}
	return &Camera{RotX: 0.35, RotY: -0.5, Zoom: 1, Extent: extent, Distance: 4}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps a scene point to dot coordinates on a sw x sh dot grid.
// The final result reports whether the point lands on the grid.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, bool) {
	rot := r3.Scale(c.Zoom/c.Extent, c.rotate(p))
	if rot.Z >= c.Distance-0.1 {
		return 0, 0, false
	}
	persp := c.Distance / (c.Distance - rot.Z)
	unit := math.Min(float64(sw), float64(sh)) / 3
	sx := int(math.Round(rot.X*persp*unit)) + sw/2
	sy := int(math.Round(-rot.Y*persp*unit)) + sh/2
	return sx, sy, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// Scene is what one frame shows: atom positions and the beam axes through
// their intersection points.
type Scene struct {
	Atoms []r3.Vec
	Beams []BeamAxis
}

type BeamAxis struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// Render draws the beam axes as lines spanning the view and every atom as
// a single dot.
func Render(c *Canvas, cam *Camera, s Scene) {
	sw, sh := c.DotSize()
	reach := 1.5 * cam.Extent / cam.Zoom
	for _, b := range s.Beams {
		from := r3.Sub(b.Origin, r3.Scale(reach, b.Direction))
		to := r3.Add(b.Origin, r3.Scale(reach, b.Direction))
		x0, y0, ok0 := cam.Project(from, sw, sh)
		x1, y1, ok1 := cam.Project(to, sw, sh)
		if ok0 || ok1 {
			c.Line(x0, y0, x1, y1)
		}
	}
	for _, p := range s.Atoms {
		if x, y, ok := cam.Project(p, sw, sh); ok {
			c.Set(x, y)
		}
	}
}
