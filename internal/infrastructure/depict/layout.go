// Package depict renders 2D molecule depictions and result plots as PNGs.
package depict

import (
	"math"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
)

// Point is a 2D coordinate in layout space, where one bond length is 1.0.
type Point struct {
	X, Y float64
}

const (
	layoutIterations = 300
	idealBondLength  = 1.0
)

// Layout computes deterministic 2D coordinates for every atom.  Atoms start
// on a circle in index order and are refined by a fixed number of
// force-directed iterations (spring attraction along bonds, inverse-square
// repulsion between all pairs).  No randomness is involved, so the same
// graph always yields the same picture.
func Layout(m *molecule.Molecule) []Point {
	n := len(m.Atoms)
	pts := make([]Point, n)
	if n == 0 {
		return pts
	}
	if n == 1 {
		return pts
	}

	radius := idealBondLength * float64(n) / (2 * math.Pi)
	if radius < idealBondLength {
		radius = idealBondLength
	}
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}

	disp := make([]Point, n)
	step := idealBondLength / 2
	for iter := 0; iter < layoutIterations; iter++ {
		for i := range disp {
			disp[i] = Point{}
		}

		// Repulsion between every atom pair.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := pts[i].X - pts[j].X
				dy := pts[i].Y - pts[j].Y
				d2 := dx*dx + dy*dy
				if d2 < 1e-6 {
					// Coincident atoms get a deterministic nudge.
					dx, dy, d2 = 1e-3*float64(i-j), 1e-3, 1e-6
				}
				f := idealBondLength * idealBondLength / d2
				disp[i].X += dx * f
				disp[i].Y += dy * f
				disp[j].X -= dx * f
				disp[j].Y -= dy * f
			}
		}

		// Spring attraction along bonds.
		for _, b := range m.Bonds {
			dx := pts[b.From].X - pts[b.To].X
			dy := pts[b.From].Y - pts[b.To].Y
			d := math.Hypot(dx, dy)
			if d < 1e-6 {
				continue
			}
			f := (d - idealBondLength) / d * 2
			disp[b.From].X -= dx * f
			disp[b.From].Y -= dy * f
			disp[b.To].X += dx * f
			disp[b.To].Y += dy * f
		}

		// Cap the per-iteration move, cooling as we go.
		limit := step * (1 - float64(iter)/float64(layoutIterations))
		if limit < 0.01 {
			limit = 0.01
		}
		for i := range pts {
			d := math.Hypot(disp[i].X, disp[i].Y)
			if d < 1e-9 {
				continue
			}
			scale := limit / d
			if scale > 1 {
				scale = 1
			}
			pts[i].X += disp[i].X * scale
			pts[i].Y += disp[i].Y * scale
		}
	}
	return pts
}

// bounds returns the min/max corners of a point set.
func bounds(pts []Point) (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return
}

// averageBondLength measures layout distance over the bonds.
func averageBondLength(m *molecule.Molecule, pts []Point) float64 {
	if len(m.Bonds) == 0 {
		return idealBondLength
	}
	total := 0.0
	for _, b := range m.Bonds {
		total += math.Hypot(pts[b.From].X-pts[b.To].X, pts[b.From].Y-pts[b.To].Y)
	}
	return total / float64(len(m.Bonds))
}
