package pipeline

import (
	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/domain/candidate"
	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// EnumerateService runs the first stage: parse the seed SMILES, enumerate
// its unique substitution isomers, and persist them as candidates.csv plus
// a plain SMILES list.
type EnumerateService struct {
	cfg   *config.Config
	paths Paths
	log   logging.Logger
}

func NewEnumerateService(cfg *config.Config, log logging.Logger) *EnumerateService {
	return &EnumerateService{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("enumerate"),
	}
}

// Run returns the number of unique candidates written.
func (s *EnumerateService) Run() (int, error) {
	if err := s.paths.EnsureDirs(); err != nil {
		return 0, err
	}

	seed, err := molecule.ParseSMILES(s.cfg.Pipeline.SeedSMILES)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInvalidSMILES, "parse seed structure").
			WithDetail("smiles=" + s.cfg.Pipeline.SeedSMILES)
	}

	cands, err := candidate.Enumerate(seed, candidate.Options{
		Substituent:       s.cfg.Enumeration.Substituent,
		AromaticOnly:      s.cfg.Enumeration.AromaticOnly,
		MaxPositions:      s.cfg.Enumeration.MaxPositions,
		MaxSimilarity:     s.cfg.Enumeration.MaxSimilarity,
		FingerprintBits:   s.cfg.Descriptor.FingerprintBits,
		FingerprintRadius: s.cfg.Descriptor.FingerprintRadius,
	}, s.log)
	if err != nil {
		return 0, err
	}

	records := make([]CandidateRecord, len(cands))
	for i, c := range cands {
		records[i] = CandidateRecord{
			Index:       c.Index,
			SMILES:      c.SMILES,
			Formula:     c.Formula,
			Mask:        c.Mask,
			Substituted: c.SubstituentCount(),
		}
	}
	if err := WriteCandidatesCSV(s.paths.CandidatesCSV(), records); err != nil {
		return 0, err
	}
	if err := writeSMILESList(s.paths.CandidatesSMI(), records); err != nil {
		return 0, err
	}

	s.log.Info("enumeration complete",
		logging.Int("candidates", len(records)),
		logging.String("csv", s.paths.CandidatesCSV()))
	return len(records), nil
}
