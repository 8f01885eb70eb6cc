package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/descriptor"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// DescriptorsService runs the third stage: compute the descriptor matrix
// for every candidate and write it as descriptors.csv.  The column set is
// the built-in descriptors plus the union of external columns observed
// across all candidates; a candidate missing an external value gets an
// empty cell, which the dataset loader later imputes.
type DescriptorsService struct {
	cfg   *config.Config
	paths Paths
	log   logging.Logger
}

func NewDescriptorsService(cfg *config.Config, log logging.Logger) *DescriptorsService {
	return &DescriptorsService{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("descriptors"),
	}
}

// Run returns the number of descriptor rows written.
func (s *DescriptorsService) Run(ctx context.Context) (int, error) {
	if err := s.paths.EnsureDirs(); err != nil {
		return 0, err
	}
	records, err := ReadCandidatesCSV(s.paths.CandidatesCSV())
	if err != nil {
		return 0, err
	}

	svc, cache, err := s.buildService()
	if err != nil {
		return 0, err
	}

	type row struct {
		id     string
		values map[string]float64
	}
	rows := make([]row, 0, len(records))
	extra := map[string]struct{}{}
	for _, rec := range records {
		values, err := svc.Compute(ctx, rec.SMILES)
		if err != nil {
			s.log.Warn("descriptor computation failed, skipping candidate",
				logging.Int("index", rec.Index),
				logging.String("smiles", rec.SMILES),
				logging.Err(err))
			continue
		}
		for name := range values {
			if !builtinColumn(name) {
				extra[name] = struct{}{}
			}
		}
		rows = append(rows, row{id: CandidateName(rec.Index), values: values})
	}

	if cache != nil {
		if err := cache.Save(); err != nil {
			s.log.Warn("descriptor cache save failed", logging.Err(err))
		}
	}

	columns := append([]string{}, descriptor.BuiltinColumns...)
	ext := make([]string, 0, len(extra))
	for name := range extra {
		ext = append(ext, name)
	}
	sort.Strings(ext)
	columns = append(columns, ext...)

	f, err := os.Create(s.paths.DescriptorsCSV())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIO, "create descriptors csv").
			WithDetail("path=" + s.paths.DescriptorsCSV())
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"id"}, columns...)); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIO, "write descriptors header")
	}
	for _, r := range rows {
		cells := make([]string, 1+len(columns))
		cells[0] = r.id
		for i, col := range columns {
			if v, ok := r.values[col]; ok {
				cells[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(cells); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeIO, "write descriptors row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIO, "flush descriptors csv")
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeIO, "sync descriptors csv")
	}

	s.log.Info("descriptor matrix written",
		logging.Int("rows", len(rows)),
		logging.Int("columns", len(columns)),
		logging.String("csv", s.paths.DescriptorsCSV()))
	return len(rows), nil
}

func (s *DescriptorsService) buildService() (*descriptor.Service, *descriptor.Cache, error) {
	builtin := descriptor.NewCalculator(s.cfg.Descriptor.FingerprintBits, s.cfg.Descriptor.FingerprintRadius)

	var external *descriptor.External
	var cache *descriptor.Cache
	if s.cfg.Descriptor.Command != "" {
		external = descriptor.NewExternal(s.cfg.Descriptor.Command, s.cfg.Descriptor.Args,
			s.cfg.Descriptor.Timeout, s.log)
		var err error
		cache, err = descriptor.LoadCache(s.paths.DescriptorCache())
		if err != nil {
			return nil, nil, err
		}
	}
	return descriptor.NewService(builtin, external, cache, s.log), cache, nil
}

func builtinColumn(name string) bool {
	for _, col := range descriptor.BuiltinColumns {
		if col == name {
			return true
		}
	}
	return false
}
