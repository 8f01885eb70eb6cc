package molecule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Canonicalize parses a SMILES string and returns its canonical form.  Two
// SMILES strings describe the same constitution iff their canonical forms
// are byte-equal, which makes the returned string the duplicate-detection
// key used by the enumeration stage.
func Canonicalize(smiles string) (string, error) {
	m, err := ParseSMILES(smiles)
	if err != nil {
		return "", err
	}
	return m.CanonicalSMILES()
}

// CanonicalSMILES serializes the molecule as a canonical SMILES string.
// Atom output order is fixed by iterative invariant refinement (Morgan
// ranks) with index-order tie breaking, so the result is deterministic for
// any atom numbering of the same graph.
func (m *Molecule) CanonicalSMILES() (string, error) {
	if len(m.Atoms) == 0 {
		return "", errors.New(errors.ErrCodeCanonicalizeFailed, "empty molecule")
	}
	ranks := m.canonicalRanks()
	w := &smilesWriter{m: m, ranks: ranks}
	return w.write()
}

// canonicalRanks assigns each atom a unique rank in [0, n).  Starting from
// a local invariant (element, aromaticity, charge, hydrogen count, degree),
// ranks are refined with the sorted ranks of each atom's neighborhood until
// the partition stops splitting; remaining symmetry classes are broken one
// atom at a time, lowest input index first, and refinement repeated.
func (m *Molecule) canonicalRanks() []int {
	n := len(m.Atoms)
	m.buildAdjacency()

	keys := make([]string, n)
	for i, a := range m.Atoms {
		keys[i] = fmt.Sprintf("%s|%t|%+d|%d|%d", a.Element, a.Aromatic, a.Charge, a.HCount, m.Degree(i))
	}
	ranks := ranksFromKeys(keys)

	refine := func() {
		for {
			next := make([]string, n)
			for i := range m.Atoms {
				nb := make([]string, 0, len(m.adj[i]))
				for _, bi := range m.adj[i] {
					b := m.Bonds[bi]
					order := b.Order
					if b.Aromatic {
						order = 0 // distinct from any Kekulé order
					}
					nb = append(nb, fmt.Sprintf("%d:%d", order, ranks[b.Other(i)]))
				}
				sort.Strings(nb)
				next[i] = fmt.Sprintf("%d|%s", ranks[i], strings.Join(nb, ","))
			}
			newRanks := ranksFromKeys(next)
			if countDistinct(newRanks) == countDistinct(ranks) {
				return
			}
			ranks = newRanks
		}
	}
	refine()

	// Break remaining ties deterministically.
	for countDistinct(ranks) < n {
		// Find the smallest duplicated rank and its lowest-index member.
		counts := map[int]int{}
		for _, r := range ranks {
			counts[r]++
		}
		dupRank := -1
		for r, c := range counts {
			if c > 1 && (dupRank == -1 || r < dupRank) {
				dupRank = r
			}
		}
		for i := 0; i < n; i++ {
			if ranks[i] == dupRank {
				// Promote this atom ahead of its symmetry class: double all
				// ranks to make room, then lower the chosen atom by one.
				for j := range ranks {
					ranks[j] *= 2
				}
				ranks[i]--
				break
			}
		}
		ranks = normalizeRanks(ranks)
		refine()
	}
	return ranks
}

// ranksFromKeys converts arbitrary sortable keys into dense ranks.
func ranksFromKeys(keys []string) []int {
	uniq := make([]string, len(keys))
	copy(uniq, keys)
	sort.Strings(uniq)
	uniq = dedupStrings(uniq)
	pos := make(map[string]int, len(uniq))
	for i, k := range uniq {
		pos[k] = i
	}
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = pos[k]
	}
	return out
}

// normalizeRanks maps arbitrary integer ranks onto dense [0, m) values.
func normalizeRanks(ranks []int) []int {
	uniq := make([]int, len(ranks))
	copy(uniq, ranks)
	sort.Ints(uniq)
	uniq = dedupInts(uniq)
	pos := make(map[int]int, len(uniq))
	for i, r := range uniq {
		pos[r] = i
	}
	out := make([]int, len(ranks))
	for i, r := range ranks {
		out[i] = pos[r]
	}
	return out
}

func dedupStrings(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

func dedupInts(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func countDistinct(ranks []int) int {
	seen := map[int]struct{}{}
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// smilesWriter emits a SMILES string following the canonical atom ranks.
type smilesWriter struct {
	m     *Molecule
	ranks []int

	visited   []bool
	usedBond  []bool
	closure   map[int]int // bond index → ring digit
	nextDigit int
	sb        strings.Builder
}

func (w *smilesWriter) write() (string, error) {
	n := len(w.m.Atoms)
	w.visited = make([]bool, n)
	w.usedBond = make([]bool, len(w.m.Bonds))
	w.closure = map[int]int{}
	w.nextDigit = 1

	// Emit one component at a time, each starting from its minimum-rank atom.
	first := true
	for {
		start := -1
		for i := 0; i < n; i++ {
			if !w.visited[i] && (start == -1 || w.ranks[i] < w.ranks[start]) {
				start = i
			}
		}
		if start == -1 {
			break
		}
		if !first {
			w.sb.WriteByte('.')
		}
		first = false
		w.findClosures(start, -1)
		w.emitAtom(start, -1)
	}

	return w.sb.String(), nil
}

// findClosures walks the spanning tree in canonical order and records every
// non-tree bond as a ring closure.
func (w *smilesWriter) findClosures(atom, viaBond int) {
	w.visited[atom] = true
	for _, bi := range w.orderedBonds(atom) {
		if bi == viaBond || w.usedBond[bi] {
			continue
		}
		next := w.m.Bonds[bi].Other(atom)
		if w.visited[next] {
			w.usedBond[bi] = true
			w.closure[bi] = 0 // digit assigned during emission
			continue
		}
		w.usedBond[bi] = true
		w.findClosures(next, bi)
	}
}

// orderedBonds returns atom's incident bonds sorted by the canonical rank of
// the opposite atom, ring-closure partners last so branches stay compact.
func (w *smilesWriter) orderedBonds(atom int) []int {
	bonds := append([]int(nil), w.m.BondsOf(atom)...)
	sort.SliceStable(bonds, func(a, b int) bool {
		ra := w.ranks[w.m.Bonds[bonds[a]].Other(atom)]
		rb := w.ranks[w.m.Bonds[bonds[b]].Other(atom)]
		return ra < rb
	})
	return bonds
}

// emitAtom writes one atom, its ring-closure digits, and its subtrees.
func (w *smilesWriter) emitAtom(atom, viaBond int) {
	w.sb.WriteString(w.atomToken(atom))

	// Ring closure digits attached to this atom, in canonical bond order.
	type pending struct{ bond, next int }
	var children []pending
	for _, bi := range w.orderedBonds(atom) {
		if bi == viaBond {
			continue
		}
		if _, isClosure := w.closure[bi]; isClosure {
			digit := w.closure[bi]
			if digit == 0 {
				digit = w.nextDigit
				w.nextDigit++
				w.closure[bi] = digit
			} else {
				// Second encounter: the digit retires after this use.
				delete(w.closure, bi)
			}
			w.sb.WriteString(w.bondToken(bi, atom))
			w.sb.WriteString(digitToken(digit))
			continue
		}
		next := w.m.Bonds[bi].Other(atom)
		if w.isTreeChild(bi, atom, viaBond) {
			children = append(children, pending{bond: bi, next: next})
		}
	}

	for i, c := range children {
		last := i == len(children)-1
		if !last {
			w.sb.WriteByte('(')
		}
		w.sb.WriteString(w.bondToken(c.bond, atom))
		w.emitAtom(c.next, c.bond)
		if !last {
			w.sb.WriteByte(')')
		}
	}
}

// isTreeChild reports whether the bond leads down the spanning tree from
// atom (i.e., is not the incoming bond and not a ring closure).
func (w *smilesWriter) isTreeChild(bi, atom, viaBond int) bool {
	if bi == viaBond {
		return false
	}
	_, isClosure := w.closure[bi]
	return !isClosure
}

// bondToken returns the bond symbol preceding a neighbor or ring digit.
// Aromatic bonds and default single bonds are written bare; a single bond
// between two aromatic atoms needs an explicit '-' so it does not reparse
// as aromatic.
func (w *smilesWriter) bondToken(bi, fromAtom int) string {
	b := w.m.Bonds[bi]
	if b.Aromatic {
		return ""
	}
	switch b.Order {
	case 2:
		return "="
	case 3:
		return "#"
	}
	if w.m.Atoms[b.From].Aromatic && w.m.Atoms[b.To].Aromatic {
		return "-"
	}
	return ""
}

// digitToken renders a ring-closure number, using the %nn form past 9.
func digitToken(d int) string {
	if d < 10 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%%%02d", d)
}

// atomToken renders a single atom, bracketed only when required.
func (w *smilesWriter) atomToken(i int) string {
	a := w.m.Atoms[i]

	sym := a.Element
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}

	// A bare symbol implies the valence-derived hydrogen count; brackets are
	// required whenever the actual count (or charge/isotope) differs.
	bare := organicSubset[a.Element] &&
		a.Charge == 0 && a.Isotope == 0 &&
		(!a.Aromatic || aromaticSymbols[strings.ToLower(a.Element)] != "") &&
		a.HCount == w.m.implicitHydrogens(i)
	if bare {
		return sym
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		fmt.Fprintf(&sb, "%d", a.Isotope)
	}
	sb.WriteString(sym)
	if a.HCount == 1 {
		sb.WriteByte('H')
	} else if a.HCount > 1 {
		fmt.Fprintf(&sb, "H%d", a.HCount)
	}
	if a.Charge > 0 {
		if a.Charge == 1 {
			sb.WriteByte('+')
		} else {
			fmt.Fprintf(&sb, "+%d", a.Charge)
		}
	} else if a.Charge < 0 {
		if a.Charge == -1 {
			sb.WriteByte('-')
		} else {
			fmt.Fprintf(&sb, "-%d", -a.Charge)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
