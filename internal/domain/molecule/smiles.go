package molecule

import (
	"fmt"
	"strings"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// organicSubset lists the elements that may be written without brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true,
	"S": true, "F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols maps the lower-case aromatic forms to element symbols.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
}

// knownElements is the accepted bracket-atom symbol set.  The pipeline only
// meets organic molecules plus halogens and a few common heteroatoms, so an
// unknown symbol is treated as a parse error rather than silently accepted.
var knownElements = map[string]bool{
	"H": true, "B": true, "C": true, "N": true, "O": true, "F": true,
	"Si": true, "P": true, "S": true, "Cl": true, "Br": true, "I": true,
	"Se": true, "As": true, "Na": true, "K": true, "Li": true,
}

// ringRef tracks an open ring-closure digit.
type ringRef struct {
	atom     int
	order    int // 0 means unspecified
	aromatic bool
}

// parser holds the state of a single SMILES parse.
type parser struct {
	s   string
	pos int
	mol *Molecule

	prev      int // index of the previous atom, -1 before the first
	stack     []int
	rings     map[int]ringRef
	bondOrder int // pending explicit bond order, 0 = unspecified
	bondArom  bool
}

// ParseSMILES parses a SMILES string into a molecular graph.  Supported
// notation: the organic subset and bracket atoms (isotope, charge, explicit
// hydrogen count), aromatic lower-case forms, branches, bond symbols
// (- = # :), and ring closures including the %nn form.  Stereochemistry
// markers are accepted and discarded; this pipeline never consumes them.
func ParseSMILES(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "empty SMILES string")
	}
	p := &parser{
		s:     s,
		mol:   NewMolecule(),
		prev:  -1,
		rings: map[int]ringRef{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	if p.bondOrder != 0 || p.bondArom {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "dangling bond symbol").
			WithDetail("smiles=" + s)
	}
	if len(p.rings) != 0 {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "unclosed ring bond").
			WithDetail("smiles=" + s)
	}
	if len(p.stack) != 0 {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "unclosed branch").
			WithDetail("smiles=" + s)
	}
	if len(p.mol.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "no atoms in SMILES").
			WithDetail("smiles=" + s)
	}
	p.mol.AssignImplicitHydrogens()
	return p.mol, nil
}

func (p *parser) fail(msg string) error {
	return errors.New(errors.ErrCodeSMILESParseFailed, msg).
		WithDetail(fmt.Sprintf("smiles=%s pos=%d", p.s, p.pos))
}

func (p *parser) run() error {
	for p.pos < len(p.s) {
		ch := p.s[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.fail("branch before any atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case ch == ')':
			if len(p.stack) == 0 {
				return p.fail("unmatched closing parenthesis")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case ch == '-':
			p.bondOrder = 1
			p.pos++
		case ch == '=':
			p.bondOrder = 2
			p.pos++
		case ch == '#':
			p.bondOrder = 3
			p.pos++
		case ch == ':':
			p.bondOrder = 1
			p.bondArom = true
			p.pos++
		case ch == '/' || ch == '\\':
			// Cis/trans markers behave as single bonds once stereo is dropped.
			p.bondOrder = 1
			p.pos++
		case ch == '.':
			// Disconnected component separator.
			p.prev = -1
			p.bondOrder = 0
			p.bondArom = false
			p.pos++
		case ch >= '0' && ch <= '9':
			if err := p.ringClosure(int(ch - '0')); err != nil {
				return err
			}
			p.pos++
		case ch == '%':
			if p.pos+2 >= len(p.s) || !isDigit(p.s[p.pos+1]) || !isDigit(p.s[p.pos+2]) {
				return p.fail("malformed %nn ring closure")
			}
			num := int(p.s[p.pos+1]-'0')*10 + int(p.s[p.pos+2]-'0')
			if err := p.ringClosure(num); err != nil {
				return err
			}
			p.pos += 3
		case ch == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// organicAtom consumes a bare organic-subset atom (possibly aromatic).
func (p *parser) organicAtom() error {
	rest := p.s[p.pos:]

	// Two-character symbols first.
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.pos += 2
			return p.addAtom(Atom{Element: sym})
		}
	}

	ch := rest[:1]
	if el, ok := aromaticSymbols[ch]; ok {
		p.pos++
		return p.addAtom(Atom{Element: el, Aromatic: true})
	}
	if organicSubset[strings.ToUpper(ch)] && ch == strings.ToUpper(ch) {
		p.pos++
		return p.addAtom(Atom{Element: ch})
	}
	return p.fail("unexpected character " + ch)
}

// bracketAtom consumes a [ ... ] atom specification.
func (p *parser) bracketAtom() error {
	end := strings.IndexByte(p.s[p.pos:], ']')
	if end < 0 {
		return p.fail("unterminated bracket atom")
	}
	body := p.s[p.pos+1 : p.pos+end]
	advance := end + 1
	if body == "" {
		return p.fail("empty bracket atom")
	}

	atom := Atom{fixedH: true}
	i := 0

	// Isotope.
	for i < len(body) && isDigit(body[i]) {
		atom.Isotope = atom.Isotope*10 + int(body[i]-'0')
		i++
	}

	// Element symbol, aromatic lower-case allowed for the subset.
	if i >= len(body) {
		return p.fail("bracket atom missing element symbol")
	}
	if el, ok := aromaticSymbols[body[i:i+1]]; ok {
		atom.Element = el
		atom.Aromatic = true
		i++
	} else {
		sym := body[i : i+1]
		if sym != strings.ToUpper(sym) {
			return p.fail("invalid element symbol in bracket atom")
		}
		i++
		if i < len(body) && body[i] >= 'a' && body[i] <= 'z' {
			two := sym + body[i:i+1]
			if knownElements[two] {
				sym = two
				i++
			}
		}
		if !knownElements[sym] {
			return p.fail("unknown element symbol " + sym)
		}
		atom.Element = sym
	}

	// Chirality markers are accepted and discarded.
	for i < len(body) && body[i] == '@' {
		i++
	}
	if i+1 < len(body) && (strings.HasPrefix(body[i:], "TH") || strings.HasPrefix(body[i:], "AL")) {
		i += 2
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	// Explicit hydrogen count.
	if i < len(body) && body[i] == 'H' {
		i++
		atom.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			atom.HCount = 0
			for i < len(body) && isDigit(body[i]) {
				atom.HCount = atom.HCount*10 + int(body[i]-'0')
				i++
			}
		}
	}

	// Charge: +, -, ++, --, +2, -3.
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		count := 1
		i++
		if i < len(body) && isDigit(body[i]) {
			count = 0
			for i < len(body) && isDigit(body[i]) {
				count = count*10 + int(body[i]-'0')
				i++
			}
		} else {
			for i < len(body) && (body[i] == '+' || body[i] == '-') {
				count++
				i++
			}
		}
		atom.Charge = sign * count
	}

	// Atom class (":n") is accepted and discarded.
	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	if i != len(body) {
		return p.fail("trailing characters in bracket atom")
	}

	p.pos += advance
	return p.addAtom(atom)
}

// addAtom places the parsed atom into the graph, bonding it to the previous
// atom with the pending bond.
func (p *parser) addAtom(a Atom) error {
	idx := p.mol.AddAtom(a)
	if p.prev >= 0 {
		if err := p.mol.AddBond(p.makeBond(p.prev, idx)); err != nil {
			return err
		}
	}
	p.prev = idx
	p.bondOrder = 0
	p.bondArom = false
	return nil
}

// makeBond resolves the pending bond symbol between two atoms.  An
// unspecified bond between two aromatic atoms is aromatic; every other
// unspecified bond is single.
func (p *parser) makeBond(from, to int) Bond {
	b := Bond{From: from, To: to, Order: 1}
	switch {
	case p.bondArom:
		b.Aromatic = true
	case p.bondOrder == 0:
		if p.mol.Atoms[from].Aromatic && p.mol.Atoms[to].Aromatic {
			b.Aromatic = true
		}
	default:
		b.Order = p.bondOrder
	}
	return b
}

// ringClosure opens or closes the numbered ring bond.
func (p *parser) ringClosure(num int) error {
	if p.prev < 0 {
		return p.fail("ring closure before any atom")
	}
	ref, open := p.rings[num]
	if !open {
		p.rings[num] = ringRef{atom: p.prev, order: p.bondOrder, aromatic: p.bondArom}
		p.bondOrder = 0
		p.bondArom = false
		return nil
	}
	delete(p.rings, num)
	if ref.atom == p.prev {
		return p.fail("ring closure bonds an atom to itself")
	}

	// Either side may carry the bond symbol; they must not conflict.
	order := p.bondOrder
	arom := p.bondArom
	if order == 0 && !arom {
		order, arom = ref.order, ref.aromatic
	} else if (ref.order != 0 || ref.aromatic) && (ref.order != order || ref.aromatic != arom) {
		return p.fail("conflicting ring-closure bond symbols")
	}

	b := Bond{From: ref.atom, To: p.prev, Order: 1}
	switch {
	case arom:
		b.Aromatic = true
	case order == 0:
		if p.mol.Atoms[ref.atom].Aromatic && p.mol.Atoms[p.prev].Aromatic {
			b.Aromatic = true
		}
	default:
		b.Order = order
	}
	p.bondOrder = 0
	p.bondArom = false
	return p.mol.AddBond(b)
}
