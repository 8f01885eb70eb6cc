package geometry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// WritePDB writes the molecule as a single HETATM residue named LIG with
// CONECT records for every bond.  Atom serials are 1-based in graph order.
func WritePDB(w io.Writer, m *molecule.Molecule, coords []Vec3, name string) error {
	if len(coords) != len(m.Atoms) {
		return errors.New(errors.ErrCodeWriteFailed, "coordinate count does not match atom count").
			WithDetail(fmt.Sprintf("atoms=%d coords=%d", len(m.Atoms), len(coords)))
	}

	if name != "" {
		if _, err := fmt.Fprintf(w, "COMPND    %s\n", name); err != nil {
			return errors.Wrap(err, errors.ErrCodeWriteFailed, "write PDB header")
		}
	}

	for i, a := range m.Atoms {
		atomName := fmt.Sprintf("%s%d", strings.ToUpper(a.Element), i+1)
		if len(atomName) > 4 {
			atomName = atomName[:4]
		}
		c := coords[i]
		_, err := fmt.Fprintf(w, "HETATM%5d %-4s LIG A   1    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
			i+1, atomName, c.X, c.Y, c.Z, 1.0, 0.0, strings.ToUpper(a.Element))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeWriteFailed, "write HETATM record")
		}
	}

	for i := range m.Atoms {
		neighbors := m.Neighbors(i)
		if len(neighbors) == 0 {
			continue
		}
		// CONECT lines carry at most four bonded serials each.
		for start := 0; start < len(neighbors); start += 4 {
			end := start + 4
			if end > len(neighbors) {
				end = len(neighbors)
			}
			line := fmt.Sprintf("CONECT%5d", i+1)
			for _, nb := range neighbors[start:end] {
				line += fmt.Sprintf("%5d", nb+1)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return errors.Wrap(err, errors.ErrCodeWriteFailed, "write CONECT record")
			}
		}
	}

	if _, err := fmt.Fprintln(w, "END"); err != nil {
		return errors.Wrap(err, errors.ErrCodeWriteFailed, "write PDB terminator")
	}
	return nil
}

// WritePDBFile writes the PDB to the given path.
func WritePDBFile(path string, m *molecule.Molecule, coords []Vec3, name string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeWriteFailed, "create PDB file").
			WithDetail("path=" + path)
	}
	defer f.Close()
	if err := WritePDB(f, m, coords, name); err != nil {
		return err
	}
	return f.Sync()
}
