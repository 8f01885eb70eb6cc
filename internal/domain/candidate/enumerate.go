package candidate

import (
	"fmt"
	"math/bits"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Options controls isomer enumeration.
type Options struct {
	// Substituent is the element symbol grafted onto each chosen position.
	Substituent string
	// AromaticOnly restricts substitution to aromatic carbons.
	AromaticOnly bool
	// MaxPositions caps the number of substitutable sites; the subset
	// count is 2^k so this guards against runaway enumeration.
	MaxPositions int
	// MaxSimilarity, when in (0,1), drops candidates whose Tanimoto
	// similarity to an already kept candidate exceeds it.  0 disables
	// the filter.
	MaxSimilarity float64
	// FingerprintBits and FingerprintRadius parameterize the Morgan
	// fingerprints attached to every candidate.
	FingerprintBits   int
	FingerprintRadius int
}

// Enumerate generates every non-empty subset of the seed's substitutable
// positions, substitutes the configured element at each chosen site, and
// returns the unique isomers keyed by canonical SMILES.  The first mask to
// produce a given canonical form wins; masks are visited in ascending
// order, so results are deterministic for a fixed seed and options.
func Enumerate(seed *molecule.Molecule, opts Options, log logging.Logger) ([]*Candidate, error) {
	positions := seed.SubstitutablePositions(opts.AromaticOnly)
	if len(positions) == 0 {
		return nil, errors.New(errors.ErrCodeNoSubstitutableSites,
			"seed molecule has no substitutable positions")
	}
	if opts.MaxPositions > 0 && len(positions) > opts.MaxPositions {
		return nil, errors.New(errors.ErrCodeTooManySites,
			"seed molecule has too many substitutable positions").
			WithDetail(fmt.Sprintf("positions=%d max=%d", len(positions), opts.MaxPositions))
	}

	log.Info("enumerating substitution isomers",
		logging.Int("positions", len(positions)),
		logging.Int("subsets", (1<<len(positions))-1),
		logging.String("substituent", opts.Substituent))

	seen := map[string]struct{}{}
	var out []*Candidate
	for mask := uint64(1); mask < uint64(1)<<len(positions); mask++ {
		m := seed.Clone()
		subst := make([]int, 0, bits.OnesCount64(mask))
		failed := false
		for bit, pos := range positions {
			if mask&(1<<uint(bit)) == 0 {
				continue
			}
			if _, err := m.Substitute(pos, opts.Substituent); err != nil {
				log.Warn("substitution failed, skipping mask",
					logging.Int64("mask", int64(mask)),
					logging.Int("position", pos),
					logging.Err(err))
				failed = true
				break
			}
			subst = append(subst, pos)
		}
		if failed {
			continue
		}

		canon, err := m.CanonicalSMILES()
		if err != nil {
			log.Warn("canonicalization failed, skipping mask",
				logging.Int64("mask", int64(mask)),
				logging.Err(err))
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}

		out = append(out, &Candidate{
			Mask:        mask,
			Positions:   subst,
			SMILES:      canon,
			Formula:     m.Formula(),
			Mol:         m,
			Fingerprint: m.MorganFingerprint(opts.FingerprintBits, opts.FingerprintRadius),
			Props:       m.ComputeProperties(),
		})
	}

	if opts.MaxSimilarity > 0 && opts.MaxSimilarity < 1 {
		out = FilterDiverse(out, opts.MaxSimilarity, log)
	}
	for i, c := range out {
		c.Index = i
	}

	log.Info("enumeration complete",
		logging.Int("unique_candidates", len(out)))
	return out, nil
}
