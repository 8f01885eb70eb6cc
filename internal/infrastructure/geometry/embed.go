// Package geometry produces approximate 3D coordinates for candidate
// molecules and writes them in PDB and SDF (V2000) formats for downstream
// docking tools.
package geometry

import (
	"math"
	"math/rand"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/depict"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Vec3 is a coordinate in ångströms.
type Vec3 struct {
	X, Y, Z float64
}

// targetBondLength is a typical heavy-atom bond length in ångströms.
const targetBondLength = 1.5

// EmbedOptions controls the 3D coordinate guess.
type EmbedOptions struct {
	// RefineSteps is the number of bond-spring relaxation iterations run
	// in 3D after the initial lift from the 2D layout.
	RefineSteps int
	// Seed drives the out-of-plane perturbation of non-aromatic atoms.
	Seed int64
}

// DefaultEmbedOptions matches what ligand-preparation tools need before
// they re-minimize.
func DefaultEmbedOptions() EmbedOptions {
	return EmbedOptions{RefineSteps: 50, Seed: 1}
}

// Embed assigns 3D coordinates to every atom.  The 2D depiction layout is
// scaled to ångström bond lengths, non-aromatic atoms get a small seeded
// out-of-plane displacement, and bond-spring relaxation pulls bonded
// distances towards typical values.
func Embed(m *molecule.Molecule, opts EmbedOptions) ([]Vec3, error) {
	if len(m.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "cannot embed empty molecule")
	}
	pts := depict.Layout(m)

	scale := targetBondLength
	if avg := layoutBondLength(m, pts); avg > 1e-9 {
		scale = targetBondLength / avg
	}

	coords := make([]Vec3, len(pts))
	for i, p := range pts {
		coords[i] = Vec3{X: p.X * scale, Y: p.Y * scale}
	}

	// Push non-aromatic atoms slightly out of the plane.
	rng := rand.New(rand.NewSource(opts.Seed))
	for i, a := range m.Atoms {
		offset := (rng.Float64() - 0.5) * 0.5
		if a.Aromatic {
			continue
		}
		coords[i].Z = offset
	}

	refineBonds(m, coords, opts.RefineSteps)
	return coords, nil
}

// refineBonds runs steepest-descent iterations pulling each bonded pair
// towards targetBondLength.
func refineBonds(m *molecule.Molecule, coords []Vec3, steps int) {
	for iter := 0; iter < steps; iter++ {
		for _, b := range m.Bonds {
			f, t := b.From, b.To
			dx := coords[t].X - coords[f].X
			dy := coords[t].Y - coords[f].Y
			dz := coords[t].Z - coords[f].Z
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			if d < 1e-9 {
				continue
			}
			// Move each endpoint a quarter of the length error.
			// Aromatic atoms stay in the z=0 plane.
			adj := (d - targetBondLength) / d * 0.25
			coords[f].X += dx * adj
			coords[f].Y += dy * adj
			if !m.Atoms[f].Aromatic {
				coords[f].Z += dz * adj
			}
			coords[t].X -= dx * adj
			coords[t].Y -= dy * adj
			if !m.Atoms[t].Aromatic {
				coords[t].Z -= dz * adj
			}
		}
	}
}

func layoutBondLength(m *molecule.Molecule, pts []depict.Point) float64 {
	if len(m.Bonds) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range m.Bonds {
		total += math.Hypot(pts[b.From].X-pts[b.To].X, pts[b.From].Y-pts[b.To].Y)
	}
	return total / float64(len(m.Bonds))
}
