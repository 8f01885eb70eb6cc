package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/depict"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/internal/ml/dataset"
	"github.com/chemtools/qsarpipe/internal/ml/model"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// allFamilies is the training order when model.families is left empty.
var allFamilies = []string{model.FamilyRidge, model.FamilyLasso, model.FamilyKNN, model.FamilyForest}

// TrainService runs the fourth stage: load the training matrix, hold out a
// test split, grid-search each requested model family with k-fold cross
// validation on the scaled training rows, persist the winning model of each
// family, and report held-out metrics as metrics.csv plus one scatter plot
// per family.
type TrainService struct {
	cfg   *config.Config
	paths Paths
	log   logging.Logger
}

// FamilyResult captures one family's training outcome.
type FamilyResult struct {
	Family string
	Params map[string]float64
	CV     model.CVResult
	Test   model.Metrics
	Path   string
}

func NewTrainService(cfg *config.Config, log logging.Logger) *TrainService {
	return &TrainService{
		cfg:   cfg,
		paths: NewPaths(cfg.Pipeline.OutputDir),
		log:   log.Named("train"),
	}
}

func (s *TrainService) Run() ([]FamilyResult, error) {
	if err := s.paths.EnsureDirs(); err != nil {
		return nil, err
	}

	d, err := dataset.LoadCSV(s.cfg.Model.TrainingCSV, s.cfg.Model.IDColumn,
		s.cfg.Model.TargetColumn, s.log)
	if err != nil {
		return nil, err
	}
	train, test, err := dataset.Split(d, s.cfg.Model.TestFraction, s.cfg.Model.Seed)
	if err != nil {
		return nil, err
	}
	s.log.Info("training matrix loaded",
		logging.Int("train_rows", train.NRows()),
		logging.Int("test_rows", test.NRows()),
		logging.Int("features", d.NCols()))

	scaler := dataset.FitScaler(train.X)
	trainScaled, err := scaledCopy(train, scaler)
	if err != nil {
		return nil, err
	}
	testX, err := scaler.Transform(test.X)
	if err != nil {
		return nil, err
	}

	grids := model.DefaultGrids()
	families := s.cfg.Model.Families
	if len(families) == 0 {
		families = allFamilies
	}

	var results []FamilyResult
	for _, family := range families {
		reg, best, _, err := model.GridSearch(family, grids[family], trainScaled,
			s.cfg.Model.Folds, s.cfg.Model.Seed, s.log)
		if err != nil {
			s.log.Warn("family training failed, skipping",
				logging.String("family", family),
				logging.Err(err))
			continue
		}

		predicted, err := reg.Predict(testX)
		if err != nil {
			s.log.Warn("held-out prediction failed, skipping family",
				logging.String("family", family),
				logging.Err(err))
			continue
		}
		metrics, err := model.Evaluate(test.Y, predicted)
		if err != nil {
			return nil, err
		}

		path := s.paths.ModelFile(family)
		if err := model.Save(path, reg, best.Params, train.Columns, scaler); err != nil {
			return nil, err
		}
		if err := s.scatter(family, test.Y, predicted); err != nil {
			s.log.Warn("scatter plot failed",
				logging.String("family", family),
				logging.Err(err))
		}

		s.log.Info("family trained",
			logging.String("family", family),
			logging.String("params", paramString(best.Params)),
			logging.Float64("cv_rmse", best.MeanRMSE),
			logging.Float64("test_rmse", metrics.RMSE),
			logging.Float64("test_r2", metrics.R2))
		results = append(results, FamilyResult{
			Family: family,
			Params: best.Params,
			CV:     best,
			Test:   metrics,
			Path:   path,
		})
	}
	if len(results) == 0 {
		return nil, errors.New(errors.ErrCodeTrainFailed, "no model family trained successfully")
	}

	if err := s.writeMetricsCSV(results, train.NRows(), test.NRows()); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *TrainService) scatter(family string, actual, predicted []float64) error {
	opts := depict.DefaultScatterOptions()
	opts.Title = fmt.Sprintf("%s: predicted vs actual %s", family, s.cfg.Model.TargetColumn)
	opts.XLabel = "actual " + s.cfg.Model.TargetColumn
	opts.YLabel = "predicted " + s.cfg.Model.TargetColumn
	return depict.ScatterToFile(actual, predicted, opts, s.paths.ScatterPNG(family))
}

func (s *TrainService) writeMetricsCSV(results []FamilyResult, nTrain, nTest int) error {
	path := s.paths.MetricsCSV()
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "create metrics csv").WithDetail("path=" + path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"family", "params", "cv_rmse", "cv_mae", "cv_r2",
		"test_rmse", "test_mae", "test_r2", "n_train", "n_test"}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write metrics header")
	}
	for _, r := range results {
		row := []string{
			r.Family,
			paramString(r.Params),
			formatMetric(r.CV.MeanRMSE),
			formatMetric(r.CV.MeanMAE),
			formatMetric(r.CV.MeanR2),
			formatMetric(r.Test.RMSE),
			formatMetric(r.Test.MAE),
			formatMetric(r.Test.R2),
			strconv.Itoa(nTrain),
			strconv.Itoa(nTest),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeIO, "write metrics row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "flush metrics csv")
	}
	return f.Sync()
}

// scaledCopy returns a dataset whose feature matrix has been standardized;
// identifiers, columns, and targets are shared with the original.
func scaledCopy(d *dataset.Dataset, scaler *dataset.Scaler) (*dataset.Dataset, error) {
	X, err := scaler.Transform(d.X)
	if err != nil {
		return nil, err
	}
	return &dataset.Dataset{IDs: d.IDs, Columns: d.Columns, X: X, Y: d.Y}, nil
}

// paramString renders hyperparameters deterministically, "k=v" pairs in
// name order.
func paramString(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
