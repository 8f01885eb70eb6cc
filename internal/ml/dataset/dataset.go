// Package dataset loads descriptor tables from CSV and prepares them for
// model training: missing-value imputation, standardization, and
// deterministic train/test and k-fold splits.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// nullMarkers are cell values treated as missing.
var nullMarkers = map[string]bool{
	"": true, "na": true, "nan": true, "null": true, "none": true,
}

// Dataset is a feature matrix with row identifiers and an optional target.
type Dataset struct {
	IDs     []string
	Columns []string
	X       *mat.Dense
	Y       []float64 // nil when the table has no target column
}

// NRows returns the number of rows.
func (d *Dataset) NRows() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// NCols returns the number of feature columns.
func (d *Dataset) NCols() int {
	if d.X == nil {
		return 0
	}
	_, c := d.X.Dims()
	return c
}

// LoadCSV reads a descriptor table.  idCol names the identifier column;
// targetCol names the regression target and may be empty for
// prediction-only tables.  Cells holding null markers become NaN and are
// later imputed; rows with a missing target are dropped with a warning.
func LoadCSV(path, idCol, targetCol string, log logging.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "open dataset CSV").
			WithDetail("path=" + path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatasetInvalid, "parse dataset CSV").
			WithDetail("path=" + path)
	}
	if len(records) < 2 {
		return nil, errors.New(errors.ErrCodeDatasetInvalid, "dataset has no data rows").
			WithDetail("path=" + path)
	}

	header := records[0]
	idIdx, targetIdx := -1, -1
	var featIdx []int
	var columns []string
	for i, name := range header {
		switch name {
		case idCol:
			idIdx = i
		case targetCol:
			if targetCol != "" {
				targetIdx = i
			}
		default:
			featIdx = append(featIdx, i)
			columns = append(columns, name)
		}
	}
	if idIdx < 0 {
		return nil, errors.New(errors.ErrCodeDatasetInvalid, "identifier column not found").
			WithDetail(fmt.Sprintf("column=%s path=%s", idCol, path))
	}
	if targetCol != "" && targetIdx < 0 {
		return nil, errors.New(errors.ErrCodeDatasetInvalid, "target column not found").
			WithDetail(fmt.Sprintf("column=%s path=%s", targetCol, path))
	}
	if len(featIdx) == 0 {
		return nil, errors.New(errors.ErrCodeDatasetInvalid, "dataset has no feature columns").
			WithDetail("path=" + path)
	}

	var ids []string
	var rows [][]float64
	var y []float64
	for rn, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, errors.New(errors.ErrCodeDatasetInvalid, "row width does not match header").
				WithDetail(fmt.Sprintf("row=%d path=%s", rn+2, path))
		}
		id := strings.TrimSpace(rec[idIdx])
		if id == "" {
			log.Warn("dropping row with empty identifier", logging.Int("row", rn+2))
			continue
		}
		if targetIdx >= 0 {
			tv, ok := parseCell(rec[targetIdx])
			if !ok || math.IsNaN(tv) {
				log.Warn("dropping row with missing target",
					logging.String("id", id),
					logging.Int("row", rn+2))
				continue
			}
			y = append(y, tv)
		}

		row := make([]float64, len(featIdx))
		for j, ci := range featIdx {
			v, ok := parseCell(rec[ci])
			if !ok {
				log.Warn("non-numeric cell treated as missing",
					logging.String("id", id),
					logging.String("column", columns[j]))
				v = math.NaN()
			}
			row[j] = v
		}
		ids = append(ids, id)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeDatasetInvalid, "no usable rows in dataset").
			WithDetail("path=" + path)
	}

	X := mat.NewDense(len(rows), len(featIdx), nil)
	for i, row := range rows {
		X.SetRow(i, row)
	}
	d := &Dataset{IDs: ids, Columns: columns, X: X}
	if targetIdx >= 0 {
		d.Y = y
	}
	d.imputeColumnMeans(log)
	return d, nil
}

// parseCell converts one CSV cell.  Null markers map to (NaN, true);
// unparsable text maps to (NaN, false).
func parseCell(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if nullMarkers[strings.ToLower(s)] {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

// imputeColumnMeans replaces NaN cells with their column mean; an
// all-missing column becomes zero.
func (d *Dataset) imputeColumnMeans(log logging.Logger) {
	rows, cols := d.X.Dims()
	for c := 0; c < cols; c++ {
		sum, n := 0.0, 0
		for r := 0; r < rows; r++ {
			if v := d.X.At(r, c); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		imputed := 0
		for r := 0; r < rows; r++ {
			if math.IsNaN(d.X.At(r, c)) {
				d.X.Set(r, c, mean)
				imputed++
			}
		}
		if imputed > 0 {
			log.Debug("imputed missing values",
				logging.String("column", d.Columns[c]),
				logging.Int("cells", imputed))
		}
	}
}

// Subset returns a new Dataset holding the given row indices.
func (d *Dataset) Subset(idx []int) *Dataset {
	X := mat.NewDense(len(idx), d.NCols(), nil)
	ids := make([]string, len(idx))
	var y []float64
	if d.Y != nil {
		y = make([]float64, len(idx))
	}
	for i, ri := range idx {
		X.SetRow(i, mat.Row(nil, ri, d.X))
		ids[i] = d.IDs[ri]
		if y != nil {
			y[i] = d.Y[ri]
		}
	}
	return &Dataset{IDs: ids, Columns: d.Columns, X: X, Y: y}
}

// AlignTo reorders this dataset's feature columns to match the given
// column list, which must be a permutation-compatible subset source.
// Columns absent from the dataset are an error.
func (d *Dataset) AlignTo(columns []string) (*Dataset, error) {
	pos := make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		pos[c] = i
	}
	rows := d.NRows()
	X := mat.NewDense(rows, len(columns), nil)
	for j, c := range columns {
		src, ok := pos[c]
		if !ok {
			return nil, errors.New(errors.ErrCodeDimensionMismatch, "dataset missing required column").
				WithDetail("column=" + c)
		}
		for r := 0; r < rows; r++ {
			X.Set(r, j, d.X.At(r, src))
		}
	}
	return &Dataset{IDs: d.IDs, Columns: append([]string(nil), columns...), X: X, Y: d.Y}, nil
}
