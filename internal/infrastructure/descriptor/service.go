package descriptor

import (
	"context"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
)

// externalPrefix namespaces external tool columns away from the built-in
// set.
const externalPrefix = "ext_"

// Service merges built-in and external descriptors per structure, applying
// the failure cache so known-bad structures are never recomputed.
type Service struct {
	builtin  *Calculator
	external *External // nil disables the external tool
	cache    *Cache    // nil disables caching
	log      logging.Logger
}

// NewService wires a Service.  external and cache may be nil.
func NewService(builtin *Calculator, external *External, cache *Cache, log logging.Logger) *Service {
	return &Service{builtin: builtin, external: external, cache: cache, log: log.Named("descriptor")}
}

// Compute returns the merged descriptor vector for one SMILES.  A failed
// built-in computation returns the error; a failed external computation is
// logged, recorded as a null marker, and leaves the external columns
// absent from the result.
func (s *Service) Compute(ctx context.Context, smiles string) (map[string]float64, error) {
	values, err := s.builtin.Compute(smiles)
	if err != nil {
		return nil, err
	}
	if s.external == nil {
		return values, nil
	}

	if s.cache != nil {
		if cached, failed, ok := s.cache.Get(smiles); ok {
			if failed {
				s.log.Debug("skipping externally failed structure",
					logging.String("smiles", smiles))
				return values, nil
			}
			mergeExternal(values, cached)
			return values, nil
		}
	}

	ext, err := s.external.Compute(ctx, smiles)
	if err != nil {
		s.log.Warn("external descriptor computation failed",
			logging.String("smiles", smiles),
			logging.Err(err))
		if s.cache != nil {
			s.cache.PutFailure(smiles)
		}
		return values, nil
	}
	if s.cache != nil {
		s.cache.PutSuccess(smiles, ext)
	}
	mergeExternal(values, ext)
	return values, nil
}

func mergeExternal(dst, ext map[string]float64) {
	for name, v := range ext {
		dst[externalPrefix+name] = v
	}
}
