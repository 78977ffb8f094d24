package ecg

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/spherical/ecg-extractor/internal/svgpath"
)

// Polyline is the ordered point sequence drawn by one path element.
type Polyline []svgpath.Point

// Ys returns the y coordinate of every point.
func (p Polyline) Ys() []float64 {
	ys := make([]float64, len(p))
	for i, pt := range p {
		ys[i] = pt.Y
	}
	return ys
}

// MaxY returns the largest y coordinate. p must not be empty.
func (p Polyline) MaxY() float64 {
	m := p[0].Y
	for _, pt := range p[1:] {
		if pt.Y > m {
			m = pt.Y
		}
	}
	return m
}

// MedianY returns the median y coordinate, averaging the two middle values
// for an even count. p must not be empty.
func (p Polyline) MedianY() float64 {
	ys := p.Ys()
	sort.Float64s(ys)
	mid := len(ys) / 2
	if len(ys)%2 == 1 {
		return ys[mid]
	}
	return (ys[mid-1] + ys[mid]) / 2
}

// ExtractPolylines parses every path independently, each from the origin.
// The result is index-aligned with paths.
func ExtractPolylines(paths []string) ([]Polyline, error) {
	lines := make([]Polyline, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, d := range paths {
		i, d := i, d
		g.Go(func() error {
			p, err := svgpath.Parse(d)
			if err != nil {
				return fmt.Errorf("path %d: %w", i, err)
			}
			lines[i] = p.Vertices()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}
