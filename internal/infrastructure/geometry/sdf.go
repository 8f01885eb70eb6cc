package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// sdfBondOrder maps graph bonds onto V2000 bond types; aromatic bonds use
// type 4.
func sdfBondOrder(b molecule.Bond) int {
	if b.Aromatic {
		return 4
	}
	return b.Order
}

// WriteSDF writes one molecule as a V2000 molfile record terminated by
// $$$$.  Data fields are emitted for every props entry in sorted key order.
func WriteSDF(w io.Writer, m *molecule.Molecule, coords []Vec3, name string, props map[string]string) error {
	if len(coords) != len(m.Atoms) {
		return errors.New(errors.ErrCodeWriteFailed, "coordinate count does not match atom count").
			WithDetail(fmt.Sprintf("atoms=%d coords=%d", len(m.Atoms), len(coords)))
	}

	var sb strings.Builder
	sb.WriteString(name + "\n")
	sb.WriteString("  qsarpipe\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(m.Atoms), len(m.Bonds))

	for i, a := range m.Atoms {
		c := coords[i]
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			c.X, c.Y, c.Z, a.Element)
	}
	for _, b := range m.Bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.From+1, b.To+1, sdfBondOrder(b))
	}
	sb.WriteString("M  END\n")

	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&sb, "> <%s>\n%s\n\n", key, props[key])
	}
	sb.WriteString("$$$$\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.Wrap(err, errors.ErrCodeWriteFailed, "write SDF record")
	}
	return nil
}

// WriteSDFFile writes the molecule to an .sdf file at the given path.
func WriteSDFFile(path string, m *molecule.Molecule, coords []Vec3, name string, props map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeWriteFailed, "create SDF file").
			WithDetail("path=" + path)
	}
	defer f.Close()
	if err := WriteSDF(f, m, coords, name, props); err != nil {
		return err
	}
	return f.Sync()
}

// ReadSDF parses the first V2000 record from the reader and returns the
// molecule, its coordinates, and the record name.  Data fields are
// ignored.  Implicit hydrogens are reassigned from valence rules.
func ReadSDF(r io.Reader) (*molecule.Molecule, []Vec3, string, error) {
	sc := bufio.NewScanner(r)
	fail := func(msg string) error {
		return errors.New(errors.ErrCodeParseFailed, msg)
	}

	if !sc.Scan() {
		return nil, nil, "", fail("missing SDF name line")
	}
	name := strings.TrimSpace(sc.Text())
	for i := 0; i < 2; i++ {
		if !sc.Scan() {
			return nil, nil, "", fail("truncated SDF header")
		}
	}

	if !sc.Scan() {
		return nil, nil, "", fail("missing counts line")
	}
	counts := sc.Text()
	if len(counts) < 6 {
		return nil, nil, "", fail("malformed counts line")
	}
	atomCount, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return nil, nil, "", fail("bad atom count: " + counts)
	}
	bondCount, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return nil, nil, "", fail("bad bond count: " + counts)
	}

	m := molecule.NewMolecule()
	coords := make([]Vec3, 0, atomCount)
	for i := 0; i < atomCount; i++ {
		if !sc.Scan() {
			return nil, nil, "", fail("truncated atom block")
		}
		line := sc.Text()
		if len(line) < 34 {
			return nil, nil, "", fail("short atom line: " + line)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(line[0:10]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(line[10:20]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(line[20:30]), 64)
		if errX != nil || errY != nil || errZ != nil {
			return nil, nil, "", fail("bad atom coordinates: " + line)
		}
		elem := strings.TrimSpace(line[31:34])
		m.AddAtom(molecule.Atom{Element: elem})
		coords = append(coords, Vec3{X: x, Y: y, Z: z})
	}

	for i := 0; i < bondCount; i++ {
		if !sc.Scan() {
			return nil, nil, "", fail("truncated bond block")
		}
		line := sc.Text()
		if len(line) < 9 {
			return nil, nil, "", fail("short bond line: " + line)
		}
		from, errF := strconv.Atoi(strings.TrimSpace(line[0:3]))
		to, errT := strconv.Atoi(strings.TrimSpace(line[3:6]))
		order, errO := strconv.Atoi(strings.TrimSpace(line[6:9]))
		if errF != nil || errT != nil || errO != nil {
			return nil, nil, "", fail("bad bond line: " + line)
		}
		b := molecule.Bond{From: from - 1, To: to - 1, Order: 1}
		if order == 4 {
			b.Aromatic = true
			m.Atoms[b.From].Aromatic = true
			m.Atoms[b.To].Aromatic = true
		} else {
			b.Order = order
		}
		if err := m.AddBond(b); err != nil {
			return nil, nil, "", errors.Wrap(err, errors.ErrCodeParseFailed, "invalid bond indices")
		}
	}

	m.AssignImplicitHydrogens()
	return m, coords, name, nil
}

// ReadSDFFile parses the first record of an .sdf file.
func ReadSDFFile(path string) (*molecule.Molecule, []Vec3, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, "", errors.Wrap(err, errors.ErrCodeParseFailed, "open SDF file").
			WithDetail("path=" + path)
	}
	defer f.Close()
	return ReadSDF(f)
}
