package molecule

// atomicWeights holds standard atomic weights for the elements this
// pipeline meets.  Unknown elements contribute zero and are counted in
// Properties.UnknownAtoms so the omission is visible downstream.
var atomicWeights = map[string]float64{
	"H": 1.008, "B": 10.811, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "Na": 22.990, "Si": 28.086, "P": 30.974, "S": 32.06,
	"Cl": 35.453, "K": 39.098, "Br": 79.904, "I": 126.904,
	"Li": 6.941, "Se": 78.971, "As": 74.922,
}

// logPContributions is a crude atom-additive logP model in the spirit of
// Crippen's scheme: each heavy atom contributes a fixed increment by
// element and aromaticity.  Good enough as a ranking feature; not a
// replacement for a fitted model.
var logPContributions = map[string]float64{
	"C":  0.13,
	"c":  0.29, // aromatic carbon
	"N":  -0.60,
	"n":  -0.49,
	"O":  -0.45,
	"o":  -0.20,
	"S":  0.25,
	"s":  0.41,
	"F":  0.22,
	"Cl": 0.65,
	"Br": 0.86,
	"I":  1.11,
	"P":  -0.40,
}

// tpsaContributions approximates Ertl's topological polar surface area with
// per-element averages for N and O centers.
var tpsaContributions = map[string]float64{
	"N": 23.79,
	"O": 20.23,
	"S": 8.0,
	"P": 13.59,
}

// Properties is the set of named physicochemical descriptors computed from
// the molecular graph.  Each field becomes one column of the descriptor
// matrix consumed by the regression stage.
type Properties struct {
	MolWeight      float64
	HeavyAtoms     int
	UnknownAtoms   int
	NumCarbon      int
	NumNitrogen    int
	NumOxygen      int
	NumChlorine    int
	NumHalogen     int
	NumBonds       int
	RingCount      int
	AromaticAtoms  int
	AromaticRings  int
	RotatableBonds int
	HBondDonors    int
	HBondAcceptors int
	TPSA           float64
	LogP           float64
	WienerIndex    int
}

// ComputeProperties derives all graph descriptors for the molecule.
func (m *Molecule) ComputeProperties() Properties {
	var p Properties
	p.HeavyAtoms = len(m.Atoms)
	p.NumBonds = len(m.Bonds)
	p.RingCount = m.RingCount()
	p.AromaticRings = m.aromaticRingCount()
	p.RotatableBonds = m.rotatableBondCount()
	p.WienerIndex = m.wienerIndex()

	for i, a := range m.Atoms {
		w, known := atomicWeights[a.Element]
		if !known {
			p.UnknownAtoms++
		}
		p.MolWeight += w + float64(a.HCount)*atomicWeights["H"]

		switch a.Element {
		case "C":
			p.NumCarbon++
		case "N":
			p.NumNitrogen++
		case "O":
			p.NumOxygen++
		}
		switch a.Element {
		case "F", "Cl", "Br", "I":
			p.NumHalogen++
			if a.Element == "Cl" {
				p.NumChlorine++
			}
		}
		if a.Aromatic {
			p.AromaticAtoms++
		}

		if a.Element == "N" || a.Element == "O" {
			p.HBondAcceptors++
			if m.Atoms[i].HCount > 0 {
				p.HBondDonors++
			}
		}

		if c, ok := tpsaContributions[a.Element]; ok {
			p.TPSA += c
		}

		key := a.Element
		if a.Aromatic {
			switch a.Element {
			case "C":
				key = "c"
			case "N":
				key = "n"
			case "O":
				key = "o"
			case "S":
				key = "s"
			}
		}
		if c, ok := logPContributions[key]; ok {
			p.LogP += c
		}
	}
	return p
}

// aromaticRingCount returns the cyclomatic number of the aromatic
// subgraph: the number of independent aromatic rings.
func (m *Molecule) aromaticRingCount() int {
	// Collect aromatic bonds and the atoms they touch.
	atoms := map[int]struct{}{}
	bonds := 0
	adj := map[int][]int{}
	for _, b := range m.Bonds {
		if !b.Aromatic {
			continue
		}
		bonds++
		atoms[b.From] = struct{}{}
		atoms[b.To] = struct{}{}
		adj[b.From] = append(adj[b.From], b.To)
		adj[b.To] = append(adj[b.To], b.From)
	}
	if bonds == 0 {
		return 0
	}
	// Count connected components of the aromatic subgraph.
	seen := map[int]bool{}
	components := 0
	for a := range atoms {
		if seen[a] {
			continue
		}
		components++
		stack := []int{a}
		seen[a] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, v := range adj[u] {
				if !seen[v] {
					seen[v] = true
					stack = append(stack, v)
				}
			}
		}
	}
	return bonds - len(atoms) + components
}

// rotatableBondCount counts acyclic single bonds whose endpoints both carry
// at least one other heavy neighbor (i.e., excluding terminal bonds).
func (m *Molecule) rotatableBondCount() int {
	count := 0
	for bi, b := range m.Bonds {
		if b.Order != 1 || b.Aromatic || m.BondInRing(bi) {
			continue
		}
		if m.Degree(b.From) > 1 && m.Degree(b.To) > 1 {
			count++
		}
	}
	return count
}

// wienerIndex is the sum of shortest-path lengths over all heavy-atom
// pairs, computed by BFS from every atom.
func (m *Molecule) wienerIndex() int {
	n := len(m.Atoms)
	total := 0
	dist := make([]int, n)
	queue := make([]int, 0, n)
	for src := 0; src < n; src++ {
		for i := range dist {
			dist[i] = -1
		}
		dist[src] = 0
		queue = queue[:0]
		queue = append(queue, src)
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range m.Neighbors(u) {
				if dist[v] == -1 {
					dist[v] = dist[u] + 1
					queue = append(queue, v)
				}
			}
		}
		for i := src + 1; i < n; i++ {
			if dist[i] > 0 {
				total += dist[i]
			}
		}
	}
	return total
}
