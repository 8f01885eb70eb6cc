package molecule

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/bits"
)

// Fingerprint is a fixed-width bit vector encoding circular atom
// environments, in the style of Morgan / ECFP fingerprints.
type Fingerprint struct {
	Bits []uint64
	Size int
}

// NewFingerprint allocates a zeroed fingerprint of the given bit width.
// Width is rounded up to a multiple of 64.
func NewFingerprint(size int) *Fingerprint {
	words := (size + 63) / 64
	return &Fingerprint{Bits: make([]uint64, words), Size: words * 64}
}

// Set turns on the bit at position i modulo the fingerprint width.
func (fp *Fingerprint) Set(i uint64) {
	pos := i % uint64(fp.Size)
	fp.Bits[pos/64] |= 1 << (pos % 64)
}

// PopCount returns the number of set bits.
func (fp *Fingerprint) PopCount() int {
	n := 0
	for _, w := range fp.Bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Density is the fraction of set bits, a cheap scalar summary used as a
// descriptor column.
func (fp *Fingerprint) Density() float64 {
	if fp.Size == 0 {
		return 0
	}
	return float64(fp.PopCount()) / float64(fp.Size)
}

// Tanimoto returns the Jaccard similarity of two fingerprints of equal
// width: |a AND b| / |a OR b|.  Two empty fingerprints score 0.
func Tanimoto(a, b *Fingerprint) (float64, error) {
	if a.Size != b.Size {
		return 0, fmt.Errorf("fingerprint width mismatch: %d vs %d", a.Size, b.Size)
	}
	var inter, union int
	for i := range a.Bits {
		inter += bits.OnesCount64(a.Bits[i] & b.Bits[i])
		union += bits.OnesCount64(a.Bits[i] | b.Bits[i])
	}
	if union == 0 {
		return 0, nil
	}
	return float64(inter) / float64(union), nil
}

// MorganFingerprint hashes circular environments of every atom up to the
// given radius into a bit vector of the given width.  Radius 0 encodes
// atom types only; each further iteration folds in the sorted hashes of
// bonded neighbors, so identical substructures map to identical bits.
func (m *Molecule) MorganFingerprint(size, radius int) *Fingerprint {
	fp := NewFingerprint(size)
	n := len(m.Atoms)
	if n == 0 {
		return fp
	}

	cur := make([]uint64, n)
	for i, a := range m.Atoms {
		cur[i] = hashAtomSeed(a)
		fp.Set(cur[i])
	}

	next := make([]uint64, n)
	for r := 0; r < radius; r++ {
		for i := 0; i < n; i++ {
			env := make([]uint64, 0, 4)
			for _, bi := range m.BondsOf(i) {
				b := m.Bonds[bi]
				order := uint64(b.Order)
				if b.Aromatic {
					order = 0
				}
				env = append(env, order<<56^cur[b.Other(i)])
			}
			sortUint64(env)
			next[i] = hashEnvironment(cur[i], env)
			fp.Set(next[i])
		}
		cur, next = next, cur
	}
	return fp
}

func hashAtomSeed(a Atom) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%t|%d|%d", a.Element, a.Aromatic, a.Charge, a.HCount)
	return h.Sum64()
}

func hashEnvironment(center uint64, env []uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], center)
	h.Write(buf[:])
	for _, e := range env {
		binary.BigEndian.PutUint64(buf[:], e)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// sortUint64 is an insertion sort; environments hold at most a handful of
// neighbor hashes.
func sortUint64(s []uint64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
