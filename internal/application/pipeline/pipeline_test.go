package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/descriptor"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Pipeline.SeedSMILES = "c1ccccc1"
	cfg.Pipeline.OutputDir = t.TempDir()
	cfg.Render.MaxSize = 128
	cfg.Geometry.RefineSteps = 10
	cfg.Descriptor.FingerprintBits = 256
	cfg.PubChem.Disabled = true
	cfg.Model.Folds = 3
	cfg.Model.TestFraction = 0.25
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestEnumerateServiceBenzene(t *testing.T) {
	cfg := testConfig(t)
	paths := NewPaths(cfg.Pipeline.OutputDir)

	n, err := NewEnumerateService(cfg, logging.NewNopLogger()).Run()
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	records, err := ReadCandidatesCSV(paths.CandidatesCSV())
	require.NoError(t, err)
	require.Len(t, records, 12)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		assert.Contains(t, rec.SMILES, "Cl")
		assert.NotEmpty(t, rec.Formula)
		assert.Greater(t, rec.Substituted, 0)
	}

	smi, err := os.ReadFile(paths.CandidatesSMI())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(smi)), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, lines[0], "\tcand_0000")
}

func TestEnumerateServiceBadSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.SeedSMILES = "C1CC"

	_, err := NewEnumerateService(cfg, logging.NewNopLogger()).Run()
	require.Error(t, err)
}

func TestReadCandidatesCSVErrors(t *testing.T) {
	_, err := ReadCandidatesCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\n1,2\n"), 0o644))
	_, err = ReadCandidatesCSV(bad)
	require.Error(t, err)
}

func TestPrepareServiceArtifacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.LigPrep.Command = writeScript(t, `cp "$1" "$2"`)
	cfg.LigPrep.Args = []string{"{in}", "{out}"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"IdentifierList":{"CID":[7239]}}`)
	}))
	defer srv.Close()
	cfg.PubChem.Disabled = false
	cfg.PubChem.BaseURL = srv.URL

	log := logging.NewNopLogger()
	_, err := NewEnumerateService(cfg, log).Run()
	require.NoError(t, err)

	sum, err := NewPrepareService(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Candidates)
	assert.Equal(t, 12, sum.Rendered)
	assert.Equal(t, 12, sum.Embedded)
	assert.Equal(t, 12, sum.Converted)
	assert.Equal(t, 12, sum.Resolved)

	paths := NewPaths(cfg.Pipeline.OutputDir)
	assert.FileExists(t, paths.CandidatePNG(0))
	assert.FileExists(t, paths.CandidatePDB(0))
	assert.FileExists(t, paths.CandidateSDF(0))
	assert.FileExists(t, paths.CandidatePDBQT(0))

	rows := readCSV(t, paths.RegistryCSV())
	require.Len(t, rows, 13)
	assert.Equal(t, []string{"index", "smiles", "cids"}, rows[0])
	assert.Equal(t, "7239", rows[1][2])
}

func TestPrepareServiceOffline(t *testing.T) {
	cfg := testConfig(t)
	log := logging.NewNopLogger()
	_, err := NewEnumerateService(cfg, log).Run()
	require.NoError(t, err)

	sum, err := NewPrepareService(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Embedded)
	assert.Equal(t, 0, sum.Converted)
	assert.Equal(t, 0, sum.Resolved)

	rows := readCSV(t, NewPaths(cfg.Pipeline.OutputDir).RegistryCSV())
	require.Len(t, rows, 13)
	for _, row := range rows[1:] {
		assert.Empty(t, row[2])
	}
}

func TestDescriptorsServiceBuiltin(t *testing.T) {
	cfg := testConfig(t)
	log := logging.NewNopLogger()
	_, err := NewEnumerateService(cfg, log).Run()
	require.NoError(t, err)

	n, err := NewDescriptorsService(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	rows := readCSV(t, NewPaths(cfg.Pipeline.OutputDir).DescriptorsCSV())
	require.Len(t, rows, 13)
	assert.Equal(t, append([]string{"id"}, descriptor.BuiltinColumns...), rows[0])
	assert.Equal(t, "cand_0000", rows[1][0])
	for _, row := range rows[1:] {
		for _, cell := range row[1:] {
			assert.NotEmpty(t, cell)
		}
	}
}

func TestDescriptorsServiceExternalTool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Descriptor.Command = writeScript(t, `echo "logd=1.5"`)
	cfg.Descriptor.Args = []string{"{smiles}"}

	log := logging.NewNopLogger()
	_, err := NewEnumerateService(cfg, log).Run()
	require.NoError(t, err)
	_, err = NewDescriptorsService(cfg, log).Run(context.Background())
	require.NoError(t, err)

	paths := NewPaths(cfg.Pipeline.OutputDir)
	rows := readCSV(t, paths.DescriptorsCSV())
	assert.Contains(t, rows[0], "ext_logd")
	assert.Equal(t, "1.5", rows[1][len(rows[0])-1])

	// the failure/success cache must survive the run
	assert.FileExists(t, paths.DescriptorCache())
}

// writeTrainingCSV fabricates a linear-target matrix keyed by SMILES-like
// identifiers, enough rows for 3-fold search with a quarter held out.
func writeTrainingCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("smiles,mol_weight,num_chlorine,logp,pEC50\n")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 24; i++ {
		mw := 100.0 + 30.0*float64(i%6)
		ncl := float64(i % 4)
		logp := 1.0 + 0.3*ncl + rng.Float64()*0.01
		target := 0.02*mw + 0.5*ncl - 0.3*logp + 1.0
		b.WriteString(fmt.Sprintf("mol%02d,%.3f,%g,%.4f,%.4f\n", i, mw, ncl, logp, target))
	}
	path := filepath.Join(dir, "training.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestTrainServiceRidge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainingCSV = writeTrainingCSV(t, t.TempDir())
	cfg.Model.Families = []string{"ridge"}

	results, err := NewTrainService(cfg, logging.NewNopLogger()).Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ridge", results[0].Family)
	assert.Less(t, results[0].Test.RMSE, 0.5)

	paths := NewPaths(cfg.Pipeline.OutputDir)
	assert.FileExists(t, paths.ModelFile("ridge"))
	assert.FileExists(t, paths.ScatterPNG("ridge"))

	rows := readCSV(t, paths.MetricsCSV())
	require.Len(t, rows, 2)
	assert.Equal(t, "ridge", rows[1][0])
	assert.Equal(t, "18", rows[1][8])
	assert.Equal(t, "6", rows[1][9])
}

func TestTrainServiceMissingCSV(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainingCSV = filepath.Join(t.TempDir(), "absent.csv")

	_, err := NewTrainService(cfg, logging.NewNopLogger()).Run()
	require.Error(t, err)
}

func TestPredictServiceAfterTraining(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainingCSV = writeTrainingCSV(t, t.TempDir())
	cfg.Model.Families = []string{"ridge", "knn"}
	log := logging.NewNopLogger()

	_, err := NewTrainService(cfg, log).Run()
	require.NoError(t, err)

	// descriptors.csv carries extra columns; alignment must pick out the
	// trained feature set by name.
	paths := NewPaths(cfg.Pipeline.OutputDir)
	matrix := "id,heavy_atoms,mol_weight,num_chlorine,logp\n" +
		"cand_0000,7,112.557,1,2.04\n" +
		"cand_0001,8,147.002,2,2.69\n"
	require.NoError(t, os.WriteFile(paths.DescriptorsCSV(), []byte(matrix), 0o644))

	families, err := NewPredictService(cfg, log).Run()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ridge", "knn"}, families)

	rows := readCSV(t, paths.PredictionsCSV("ridge"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "predicted_pec50"}, rows[0])
	assert.Equal(t, "cand_0000", rows[1][0])
	assert.NotEmpty(t, rows[1][1])
}

func TestPredictServiceNoModels(t *testing.T) {
	cfg := testConfig(t)
	paths := NewPaths(cfg.Pipeline.OutputDir)
	require.NoError(t, paths.EnsureDirs())
	matrix := "id,mol_weight\ncand_0000,112.5\n"
	require.NoError(t, os.WriteFile(paths.DescriptorsCSV(), []byte(matrix), 0o644))

	_, err := NewPredictService(cfg, logging.NewNopLogger()).Run()
	require.Error(t, err)
}

func TestRunnerFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainingCSV = writeTrainingCSV(t, t.TempDir())
	cfg.Model.Families = []string{"ridge"}

	manifest, err := NewRunner(cfg, logging.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.NotEmpty(t, manifest.RunID)
	require.Len(t, manifest.Stages, 5)
	for _, stage := range manifest.Stages {
		assert.Equal(t, "ok", stage.Status, stage.Name)
	}

	paths := NewPaths(cfg.Pipeline.OutputDir)
	assert.FileExists(t, paths.PredictionsCSV("ridge"))

	data, err := os.ReadFile(paths.Manifest())
	require.NoError(t, err)
	var reread Manifest
	require.NoError(t, json.Unmarshal(data, &reread))
	assert.Equal(t, manifest.RunID, reread.RunID)
}

func TestRunnerSkipsTrainingWhenUnconfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainingCSV = ""

	manifest, err := NewRunner(cfg, logging.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, manifest.Stages, 3)
	assert.Equal(t, "descriptors", manifest.Stages[2].Name)
}

func TestRunnerRecordsFailedStage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.SeedSMILES = "not-a-structure"

	manifest, err := NewRunner(cfg, logging.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	require.Len(t, manifest.Stages, 1)
	assert.Equal(t, "failed", manifest.Stages[0].Status)
	assert.FileExists(t, NewPaths(cfg.Pipeline.OutputDir).Manifest())
}
