package candidate

import (
	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
)

// FilterDiverse greedily keeps candidates in enumeration order, dropping
// any whose Tanimoto similarity to an already kept candidate exceeds
// maxSimilarity.  Greedy selection keeps the result deterministic.
func FilterDiverse(cands []*Candidate, maxSimilarity float64, log logging.Logger) []*Candidate {
	kept := make([]*Candidate, 0, len(cands))
	for _, c := range cands {
		redundant := false
		for _, k := range kept {
			sim, err := molecule.Tanimoto(c.Fingerprint, k.Fingerprint)
			if err != nil {
				log.Warn("similarity comparison failed, keeping candidate",
					logging.String("smiles", c.SMILES),
					logging.Err(err))
				break
			}
			if sim > maxSimilarity {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, c)
		}
	}
	if dropped := len(cands) - len(kept); dropped > 0 {
		log.Info("diversity filter dropped similar candidates",
			logging.Int("dropped", dropped),
			logging.Float64("max_similarity", maxSimilarity))
	}
	return kept
}
