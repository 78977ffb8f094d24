// Package svgpath interprets SVG path data into ordered point sequences.
package svgpath

import "fmt"

// Point is a position in page coordinates.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// ReflectAcross mirrors p through center.
func (p Point) ReflectAcross(center Point) Point {
	return center.Add(center.Sub(p))
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Kind is the drawing command a segment was produced by.
type Kind uint8

const (
	MoveTo Kind = iota
	LineTo
	HorizontalLineTo
	VerticalLineTo
	CubicCurveTo
	SmoothCubicCurveTo
	QuadraticCurveTo
	SmoothQuadraticCurveTo
	ClosePath
)

var kindNames = [...]string{
	MoveTo:                 "MoveTo",
	LineTo:                 "LineTo",
	HorizontalLineTo:       "HorizontalLineTo",
	VerticalLineTo:         "VerticalLineTo",
	CubicCurveTo:           "CubicCurveTo",
	SmoothCubicCurveTo:     "SmoothCubicCurveTo",
	QuadraticCurveTo:       "QuadraticCurveTo",
	SmoothQuadraticCurveTo: "SmoothQuadraticCurveTo",
	ClosePath:              "ClosePath",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) cubic() bool {
	return k == CubicCurveTo || k == SmoothCubicCurveTo
}

func (k Kind) quadratic() bool {
	return k == QuadraticCurveTo || k == SmoothQuadraticCurveTo
}

// Command is one interpreted drawing command. Points are absolute: control
// points first, endpoint last. A ClosePath carries the subpath start.
type Command struct {
	Kind   Kind
	Points []Point
}

// End returns the position the cursor moves to.
func (c Command) End() Point {
	return c.Points[len(c.Points)-1]
}

// Path is the result of interpreting one path data string.
type Path struct {
	Commands []Command
	origin   Point
}

// Vertices returns one point per command, in drawing order: the first
// point the command carries. That is the endpoint for lines and moves, the
// first control point for curves and the subpath start for a close.
func (p *Path) Vertices() []Point {
	pts := make([]Point, len(p.Commands))
	for i, c := range p.Commands {
		pts[i] = c.Points[0]
	}
	return pts
}

// Cursor returns the pen position after the last command.
func (p *Path) Cursor() Point {
	if len(p.Commands) == 0 {
		return p.origin
	}
	return p.Commands[len(p.Commands)-1].End()
}
