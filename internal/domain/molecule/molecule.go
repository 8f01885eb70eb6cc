// Package molecule provides the core domain model for the candidate
// structures flowing through the pipeline: a molecular graph built from
// SMILES notation, canonicalization for duplicate detection, physicochemical
// descriptors, and bit-vector fingerprints for similarity measurement.
package molecule

import (
	"fmt"
	"sort"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Atom is a single heavy atom in the molecular graph.  Hydrogens are not
// graph nodes; they are carried as a count on their heavy atom, the way
// line notations treat them.
type Atom struct {
	// Element is the IUPAC symbol ("C", "Cl", ...).
	Element string

	// Aromatic marks atoms written in lower-case SMILES form.
	Aromatic bool

	// Charge is the formal charge.
	Charge int

	// Isotope is the isotope number, zero when unspecified.
	Isotope int

	// HCount is the number of attached hydrogens, implicit plus explicit.
	HCount int

	// fixedH records that HCount was set explicitly (bracket atom or
	// substitution) and must not be recomputed from valence rules.
	fixedH bool
}

// Bond connects two atoms by zero-based index.  Aromatic bonds carry
// Order 1 with the Aromatic flag set.
type Bond struct {
	From, To int
	Order    int
	Aromatic bool
}

// Other returns the bond endpoint that is not atom i.
func (b Bond) Other(i int) int {
	if b.From == i {
		return b.To
	}
	return b.From
}

// Molecule is an editable molecular graph.  The zero value is an empty
// molecule ready for AddAtom/AddBond.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond

	// adj caches bond indexes per atom; nil until buildAdjacency.
	adj [][]int
	// ringBond caches per-bond ring membership; nil until perceiveRings.
	ringBond []bool
}

// NewMolecule returns an empty molecule.
func NewMolecule() *Molecule {
	return &Molecule{}
}

// AddAtom appends an atom and returns its index.
func (m *Molecule) AddAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.invalidate()
	return len(m.Atoms) - 1
}

// AddBond appends a bond between existing atoms.
func (m *Molecule) AddBond(b Bond) error {
	if b.From < 0 || b.From >= len(m.Atoms) || b.To < 0 || b.To >= len(m.Atoms) {
		return errors.Newf(errors.ErrCodeInternal, "bond endpoints (%d, %d) out of range", b.From, b.To)
	}
	if b.From == b.To {
		return errors.New(errors.ErrCodeInternal, "self bond")
	}
	m.Bonds = append(m.Bonds, b)
	m.invalidate()
	return nil
}

func (m *Molecule) invalidate() {
	m.adj = nil
	m.ringBond = nil
}

// buildAdjacency populates the per-atom bond index cache.
func (m *Molecule) buildAdjacency() {
	if m.adj != nil {
		return
	}
	m.adj = make([][]int, len(m.Atoms))
	for bi, b := range m.Bonds {
		m.adj[b.From] = append(m.adj[b.From], bi)
		m.adj[b.To] = append(m.adj[b.To], bi)
	}
}

// BondsOf returns the indexes of all bonds incident to atom i.
func (m *Molecule) BondsOf(i int) []int {
	m.buildAdjacency()
	return m.adj[i]
}

// Neighbors returns the atom indexes adjacent to atom i, in bond order.
func (m *Molecule) Neighbors(i int) []int {
	bonds := m.BondsOf(i)
	out := make([]int, 0, len(bonds))
	for _, bi := range bonds {
		out = append(out, m.Bonds[bi].Other(i))
	}
	return out
}

// Degree returns the number of heavy-atom neighbors of atom i.
func (m *Molecule) Degree(i int) int {
	return len(m.BondsOf(i))
}

// bondOrderSum returns the valence already consumed by explicit bonds of
// atom i.  Aromatic bonds contribute 1 each; the delocalized π electron is
// accounted for separately by the valence rules.
func (m *Molecule) bondOrderSum(i int) int {
	sum := 0
	for _, bi := range m.BondsOf(i) {
		b := m.Bonds[bi]
		if b.Aromatic {
			sum++
		} else {
			sum += b.Order
		}
	}
	return sum
}

// defaultValences lists the allowed valences of the SMILES organic subset,
// smallest first.
var defaultValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"F":  {1},
	"Cl": {1},
	"Br": {1},
	"I":  {1},
}

// implicitHydrogens computes the hydrogen count valence rules imply for
// atom i given its current bonds.  Returns 0 for elements outside the
// organic subset.
func (m *Molecule) implicitHydrogens(i int) int {
	a := m.Atoms[i]
	valences, ok := defaultValences[a.Element]
	if !ok {
		return 0
	}
	consumed := m.bondOrderSum(i)
	if a.Aromatic {
		// One bonding electron participates in the delocalized system.
		consumed++
	}
	// Formal charge shifts the target valence for N/O/S-like centers.
	adjust := 0
	switch a.Element {
	case "N", "P":
		adjust = a.Charge
	case "O", "S":
		adjust = a.Charge
	case "C", "B":
		adjust = -abs(a.Charge)
	}
	for _, v := range valences {
		target := v + adjust
		if consumed <= target {
			return target - consumed
		}
	}
	return 0
}

// AssignImplicitHydrogens recomputes HCount for every atom whose hydrogen
// count was not fixed explicitly.  Called by the parser after the graph is
// complete and again after structural edits.
func (m *Molecule) AssignImplicitHydrogens() {
	for i := range m.Atoms {
		if m.Atoms[i].fixedH {
			continue
		}
		m.Atoms[i].HCount = m.implicitHydrogens(i)
	}
}

// SetExplicitH fixes the hydrogen count of atom i, exempting it from
// implicit recomputation.
func (m *Molecule) SetExplicitH(i, count int) {
	m.Atoms[i].HCount = count
	m.Atoms[i].fixedH = true
}

// perceiveRings marks every bond that lies on at least one cycle.  A bond is
// a ring bond iff it is not a bridge of the graph; bridges are found with a
// single DFS (Tarjan low-link).
func (m *Molecule) perceiveRings() {
	if m.ringBond != nil {
		return
	}
	m.buildAdjacency()
	n := len(m.Atoms)
	m.ringBond = make([]bool, len(m.Bonds))
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	var dfs func(u, parentBond int)
	dfs = func(u, parentBond int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, bi := range m.adj[u] {
			if bi == parentBond {
				continue
			}
			v := m.Bonds[bi].Other(u)
			if disc[v] == -1 {
				dfs(v, bi)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				// A tree edge lies on a cycle iff the subtree below it can
				// reach u or an ancestor without using the edge (not a bridge).
				m.ringBond[bi] = low[v] <= disc[u]
			} else {
				if disc[v] < low[u] {
					low[u] = disc[v]
				}
				// Back edges always close a cycle.
				m.ringBond[bi] = true
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] == -1 {
			dfs(i, -1)
		}
	}
}

// BondInRing reports whether bond bi is part of a cycle.
func (m *Molecule) BondInRing(bi int) bool {
	m.perceiveRings()
	return m.ringBond[bi]
}

// AtomInRing reports whether atom i is part of a cycle.
func (m *Molecule) AtomInRing(i int) bool {
	m.perceiveRings()
	for _, bi := range m.adj[i] {
		if m.ringBond[bi] {
			return true
		}
	}
	return false
}

// RingCount returns the cyclomatic number (SSSR size) of the graph.
func (m *Molecule) RingCount() int {
	return len(m.Bonds) - len(m.Atoms) + m.componentCount()
}

func (m *Molecule) componentCount() int {
	m.buildAdjacency()
	seen := make([]bool, len(m.Atoms))
	count := 0
	for i := range m.Atoms {
		if seen[i] {
			continue
		}
		count++
		stack := []int{i}
		seen[i] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, v := range m.Neighbors(u) {
				if !seen[v] {
					seen[v] = true
					stack = append(stack, v)
				}
			}
		}
	}
	return count
}

// Clone returns a deep copy of the molecule with caches reset.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Atoms: make([]Atom, len(m.Atoms)),
		Bonds: make([]Bond, len(m.Bonds)),
	}
	copy(c.Atoms, m.Atoms)
	copy(c.Bonds, m.Bonds)
	return c
}

// SubstitutablePositions returns the indexes of atoms that can donate a
// hydrogen for substitution: carbons with at least one attached hydrogen,
// optionally restricted to aromatic ones.
func (m *Molecule) SubstitutablePositions(aromaticOnly bool) []int {
	var out []int
	for i, a := range m.Atoms {
		if a.Element != "C" || a.HCount < 1 {
			continue
		}
		if aromaticOnly && !a.Aromatic {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Substitute replaces one hydrogen on atom i with a single-bonded atom of
// the given element and returns the new atom's index.  The edited hydrogen
// count is pinned so implicit recomputation cannot restore it.
func (m *Molecule) Substitute(i int, element string) (int, error) {
	if i < 0 || i >= len(m.Atoms) {
		return 0, errors.Newf(errors.ErrCodeInternal, "atom index %d out of range", i)
	}
	if m.Atoms[i].HCount < 1 {
		return 0, errors.New(errors.ErrCodeValenceViolation, "no hydrogen available for substitution").
			WithDetail(fmt.Sprintf("atom=%d element=%s", i, m.Atoms[i].Element))
	}
	m.SetExplicitH(i, m.Atoms[i].HCount-1)
	ni := m.AddAtom(Atom{Element: element})
	if err := m.AddBond(Bond{From: i, To: ni, Order: 1}); err != nil {
		return 0, err
	}
	m.AssignImplicitHydrogens()
	return ni, nil
}

// CountElement returns the number of graph atoms with the given symbol.
func (m *Molecule) CountElement(symbol string) int {
	count := 0
	for _, a := range m.Atoms {
		if a.Element == symbol {
			count++
		}
	}
	return count
}

// TotalHydrogens returns the sum of attached hydrogen counts.
func (m *Molecule) TotalHydrogens() int {
	total := 0
	for _, a := range m.Atoms {
		total += a.HCount
	}
	return total
}

// Formula returns the molecular formula in Hill order (C, H, then the
// remaining elements alphabetically).
func (m *Molecule) Formula() string {
	counts := map[string]int{}
	for _, a := range m.Atoms {
		counts[a.Element]++
	}
	h := m.TotalHydrogens()

	var sb []byte
	appendPart := func(sym string, n int) {
		if n == 0 {
			return
		}
		sb = append(sb, sym...)
		if n > 1 {
			sb = append(sb, []byte(fmt.Sprintf("%d", n))...)
		}
	}
	appendPart("C", counts["C"])
	appendPart("H", h)
	rest := make([]string, 0, len(counts))
	for sym := range counts {
		if sym == "C" {
			continue
		}
		rest = append(rest, sym)
	}
	sort.Strings(rest)
	for _, sym := range rest {
		appendPart(sym, counts[sym])
	}
	return string(sb)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
