package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Runner chains every stage end to end and records a run manifest.  The
// train and predict stages only run when a training matrix is configured;
// enumeration, preparation, and descriptor computation always run.
type Runner struct {
	cfg   *config.Config
	paths Paths
	log   logging.Logger
}

// StageRecord is one manifest entry.
type StageRecord struct {
	Name     string        `json:"name"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Status   string        `json:"status"`
}

// Manifest summarizes one complete pipeline run.
type Manifest struct {
	RunID      string        `json:"run_id"`
	SeedSMILES string        `json:"seed_smiles"`
	OutputDir  string        `json:"output_dir"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageRecord `json:"stages"`
}

func NewRunner(cfg *config.Config, log logging.Logger) *Runner {
	return &Runner{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("run"),
	}
}

// Run executes the configured stages in order.  The manifest is written
// even when a stage fails, so partial runs stay inspectable.
func (r *Runner) Run(ctx context.Context) (*Manifest, error) {
	manifest := &Manifest{
		RunID:      uuid.NewString(),
		SeedSMILES: r.cfg.Pipeline.SeedSMILES,
		OutputDir:  r.cfg.Pipeline.OutputDir,
		StartedAt:  time.Now().UTC(),
	}
	r.log.Info("pipeline run starting",
		logging.String("run_id", manifest.RunID),
		logging.String("seed", manifest.SeedSMILES))

	err := r.stages(ctx, manifest)

	manifest.FinishedAt = time.Now().UTC()
	if writeErr := r.writeManifest(manifest); writeErr != nil {
		r.log.Error("manifest write failed", logging.Err(writeErr))
		if err == nil {
			err = writeErr
		}
	}
	if err != nil {
		return manifest, err
	}
	r.log.Info("pipeline run finished",
		logging.String("run_id", manifest.RunID),
		logging.Duration("elapsed", manifest.FinishedAt.Sub(manifest.StartedAt)))
	return manifest, nil
}

func (r *Runner) stages(ctx context.Context, manifest *Manifest) error {
	if err := r.record(manifest, "enumerate", func() (string, error) {
		n, err := NewEnumerateService(r.cfg, r.log).Run()
		return fmt.Sprintf("candidates=%d", n), err
	}); err != nil {
		return err
	}

	if err := r.record(manifest, "prepare", func() (string, error) {
		sum, err := NewPrepareService(r.cfg, r.log).Run(ctx)
		detail := fmt.Sprintf("rendered=%d embedded=%d converted=%d resolved=%d",
			sum.Rendered, sum.Embedded, sum.Converted, sum.Resolved)
		return detail, err
	}); err != nil {
		return err
	}

	if err := r.record(manifest, "descriptors", func() (string, error) {
		n, err := NewDescriptorsService(r.cfg, r.log).Run(ctx)
		return fmt.Sprintf("rows=%d", n), err
	}); err != nil {
		return err
	}

	if r.cfg.Model.TrainingCSV == "" {
		r.log.Info("no training matrix configured, skipping train and predict")
		return nil
	}

	if err := r.record(manifest, "train", func() (string, error) {
		results, err := NewTrainService(r.cfg, r.log).Run()
		names := make([]string, len(results))
		for i, res := range results {
			names[i] = res.Family
		}
		return "families=" + strings.Join(names, ","), err
	}); err != nil {
		return err
	}

	return r.record(manifest, "predict", func() (string, error) {
		families, err := NewPredictService(r.cfg, r.log).Run()
		return "families=" + strings.Join(families, ","), err
	})
}

func (r *Runner) record(manifest *Manifest, name string, fn func() (string, error)) error {
	start := time.Now()
	detail, err := fn()
	rec := StageRecord{
		Name:     name,
		Detail:   detail,
		Duration: time.Since(start),
		Status:   "ok",
	}
	if err != nil {
		rec.Status = "failed"
		rec.Detail = err.Error()
	}
	manifest.Stages = append(manifest.Stages, rec)
	if err != nil {
		return errors.Wrap(err, errors.GetCode(err), "stage "+name+" failed")
	}
	return nil
}

func (r *Runner) writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal run manifest")
	}
	data = append(data, '\n')
	if err := os.WriteFile(r.paths.Manifest(), data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write run manifest").
			WithDetail("path=" + r.paths.Manifest())
	}
	return nil
}
