package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/depict"
	"github.com/chemtools/qsarpipe/internal/infrastructure/geometry"
	"github.com/chemtools/qsarpipe/internal/infrastructure/ligprep"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/internal/infrastructure/pubchem"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// PrepareService runs the second stage: for every candidate it renders a
// 2D depiction, embeds 3D coordinates and writes PDB + SDF files, converts
// the PDB to PDBQT through the configured ligand-preparation tool, and
// resolves PubChem CIDs into registry.csv.  Failures on a single candidate
// are logged and skipped; the stage keeps going.
type PrepareService struct {
	cfg     *config.Config
	paths   Paths
	ligprep *ligprep.Runner // nil when no tool is configured
	pubchem *pubchem.Client // nil when lookups are disabled
	log     logging.Logger
}

// PrepareSummary counts the per-candidate outcomes of one prepare run.
type PrepareSummary struct {
	Candidates int
	Rendered   int
	Embedded   int
	Converted  int
	Resolved   int
}

func NewPrepareService(cfg *config.Config, log logging.Logger) *PrepareService {
	s := &PrepareService{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("prepare"),
	}
	if cfg.LigPrep.Command != "" {
		s.ligprep = ligprep.NewRunner(cfg.LigPrep.Command, cfg.LigPrep.Args, cfg.LigPrep.Timeout, log)
	}
	if !cfg.PubChem.Disabled {
		s.pubchem = pubchem.NewClient(cfg.PubChem.BaseURL, cfg.PubChem.Timeout, log)
	}
	return s
}

func (s *PrepareService) Run(ctx context.Context) (PrepareSummary, error) {
	var sum PrepareSummary

	if err := s.paths.EnsureDirs(); err != nil {
		return sum, err
	}
	records, err := ReadCandidatesCSV(s.paths.CandidatesCSV())
	if err != nil {
		return sum, err
	}
	sum.Candidates = len(records)

	registry := make([][]string, 0, len(records))
	for _, rec := range records {
		mol, err := molecule.ParseSMILES(rec.SMILES)
		if err != nil {
			s.log.Warn("candidate SMILES no longer parses, skipping",
				logging.Int("index", rec.Index),
				logging.String("smiles", rec.SMILES),
				logging.Err(err))
			continue
		}

		if s.render(rec, mol) {
			sum.Rendered++
		}
		embedded, converted := s.geometry(ctx, rec, mol)
		if embedded {
			sum.Embedded++
		}
		if converted {
			sum.Converted++
		}
		registry = append(registry, s.lookup(ctx, rec))
	}

	if err := writeRegistryCSV(s.paths.RegistryCSV(), registry); err != nil {
		return sum, err
	}
	if s.pubchem != nil {
		sum.Resolved = countResolved(registry)
	}

	s.log.Info("preparation complete",
		logging.Int("candidates", sum.Candidates),
		logging.Int("rendered", sum.Rendered),
		logging.Int("embedded", sum.Embedded),
		logging.Int("converted", sum.Converted),
		logging.Int("resolved", sum.Resolved))
	return sum, nil
}

func (s *PrepareService) render(rec CandidateRecord, mol *molecule.Molecule) bool {
	opts := depict.DefaultRenderOptions()
	opts.MaxSize = s.cfg.Render.MaxSize
	opts.Title = rec.Formula
	if err := depict.RenderToFile(mol, opts, s.paths.CandidatePNG(rec.Index)); err != nil {
		s.log.Warn("depiction failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return false
	}
	return true
}

// geometry embeds 3D coordinates, writes the PDB and SDF files, and runs
// the ligand-preparation tool on the PDB.  It reports whether embedding
// and conversion succeeded.
func (s *PrepareService) geometry(ctx context.Context, rec CandidateRecord, mol *molecule.Molecule) (embedded, converted bool) {
	coords, err := geometry.Embed(mol, geometry.EmbedOptions{
		RefineSteps: s.cfg.Geometry.RefineSteps,
		Seed:        s.cfg.Geometry.Seed,
	})
	if err != nil {
		s.log.Warn("embedding failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return false, false
	}

	name := CandidateName(rec.Index)
	pdbPath := s.paths.CandidatePDB(rec.Index)
	if err := geometry.WritePDBFile(pdbPath, mol, coords, name); err != nil {
		s.log.Warn("pdb write failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return false, false
	}
	props := map[string]string{
		"SMILES":  rec.SMILES,
		"FORMULA": rec.Formula,
	}
	if err := geometry.WriteSDFFile(s.paths.CandidateSDF(rec.Index), mol, coords, name, props); err != nil {
		s.log.Warn("sdf write failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return false, false
	}

	if s.ligprep == nil {
		return true, false
	}
	if err := s.ligprep.Prepare(ctx, pdbPath, s.paths.CandidatePDBQT(rec.Index)); err != nil {
		s.log.Warn("ligand preparation failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return true, false
	}
	return true, true
}

// lookup returns one registry.csv row.  Lookup failures and disabled
// lookups both leave the CID column empty.
func (s *PrepareService) lookup(ctx context.Context, rec CandidateRecord) []string {
	row := []string{strconv.Itoa(rec.Index), rec.SMILES, ""}
	if s.pubchem == nil {
		return row
	}
	cids, err := s.pubchem.LookupCIDs(ctx, rec.SMILES)
	if err != nil {
		s.log.Warn("registry lookup failed",
			logging.Int("index", rec.Index),
			logging.Err(err))
		return row
	}
	parts := make([]string, len(cids))
	for i, cid := range cids {
		parts[i] = strconv.FormatInt(cid, 10)
	}
	row[2] = strings.Join(parts, ";")
	return row
}

func writeRegistryCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "create registry csv").WithDetail("path=" + path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "smiles", "cids"}); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write registry header")
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write registry rows")
	}
	return f.Sync()
}

func countResolved(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if row[2] != "" {
			n++
		}
	}
	return n
}
