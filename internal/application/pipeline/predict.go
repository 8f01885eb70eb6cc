package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/internal/ml/dataset"
	"github.com/chemtools/qsarpipe/internal/ml/model"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// PredictService runs the final stage: score the candidate descriptor
// matrix with every persisted model and write one predictions CSV per
// family.  Each model carries its own feature column order and scaler, so
// the descriptor matrix is realigned and standardized per model.
type PredictService struct {
	cfg   *config.Config
	paths Paths
	log   logging.Logger
}

func NewPredictService(cfg *config.Config, log logging.Logger) *PredictService {
	return &PredictService{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("predict"),
	}
}

// Run returns the families that produced a predictions file.
func (s *PredictService) Run() ([]string, error) {
	d, err := dataset.LoadCSV(s.paths.DescriptorsCSV(), "id", "", s.log)
	if err != nil {
		return nil, err
	}

	modelPaths, err := filepath.Glob(filepath.Join(s.paths.ModelsDir(), "*.msgpack"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "list model files")
	}
	if len(modelPaths) == 0 {
		return nil, errors.New(errors.ErrCodeModelLoadFailed, "no trained models found").
			WithDetail("dir=" + s.paths.ModelsDir())
	}

	var families []string
	for _, path := range modelPaths {
		family, err := s.predictOne(path, d)
		if err != nil {
			s.log.Warn("prediction failed, skipping model",
				logging.String("model", path),
				logging.Err(err))
			continue
		}
		families = append(families, family)
	}
	if len(families) == 0 {
		return nil, errors.New(errors.ErrCodeModelLoadFailed, "every model failed to predict")
	}
	return families, nil
}

func (s *PredictService) predictOne(path string, d *dataset.Dataset) (string, error) {
	reg, env, err := model.Load(path)
	if err != nil {
		return "", err
	}

	aligned, err := d.AlignTo(env.Columns)
	if err != nil {
		return "", err
	}
	X, err := env.Scaler.Transform(aligned.X)
	if err != nil {
		return "", err
	}
	predicted, err := reg.Predict(X)
	if err != nil {
		return "", err
	}

	out := s.paths.PredictionsCSV(env.Family)
	if err := writePredictionsCSV(out, s.cfg.Model.TargetColumn, aligned.IDs, predicted); err != nil {
		return "", err
	}
	s.log.Info("predictions written",
		logging.String("family", env.Family),
		logging.Int("rows", len(predicted)),
		logging.String("csv", out))
	return env.Family, nil
}

func writePredictionsCSV(path, target string, ids []string, predicted []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "create predictions csv").WithDetail("path=" + path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "predicted_" + strings.ToLower(target)}); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write predictions header")
	}
	for i, id := range ids {
		row := []string{id, strconv.FormatFloat(predicted[i], 'f', 4, 64)}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeIO, "write predictions row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "flush predictions csv")
	}
	return f.Sync()
}
