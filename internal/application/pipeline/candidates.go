package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// CandidateRecord is the flat-file form of one enumerated candidate.  The
// prepare and descriptor stages consume these records instead of in-memory
// molecules so each stage can run in a fresh process.
type CandidateRecord struct {
	Index       int
	SMILES      string
	Formula     string
	Mask        uint64
	Substituted int
}

var candidateHeader = []string{"index", "smiles", "formula", "mask", "n_substituted"}

// WriteCandidatesCSV writes the enumeration result to path.
func WriteCandidatesCSV(path string, records []CandidateRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "create candidates csv").WithDetail("path=" + path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(candidateHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write candidates header")
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Index),
			r.SMILES,
			r.Formula,
			strconv.FormatUint(r.Mask, 10),
			strconv.Itoa(r.Substituted),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeIO, "write candidates row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "flush candidates csv")
	}
	return f.Sync()
}

// writeSMILESList writes one "SMILES<TAB>name" line per candidate, the
// plain-text form most external chemistry tools accept directly.
func writeSMILESList(path string, records []CandidateRecord) error {
	var b bytes.Buffer
	for _, r := range records {
		fmt.Fprintf(&b, "%s\t%s\n", r.SMILES, CandidateName(r.Index))
	}
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write smiles list").WithDetail("path=" + path)
	}
	return nil
}

// ReadCandidatesCSV loads the enumeration result from path.
func ReadCandidatesCSV(path string) ([]CandidateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "open candidates csv").WithDetail("path=" + path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "read candidates csv").WithDetail("path=" + path)
	}
	if len(rows) < 1 {
		return nil, errors.New(errors.ErrCodeIO, "candidates csv is empty").WithDetail("path=" + path)
	}
	if len(rows[0]) != len(candidateHeader) {
		return nil, errors.New(errors.ErrCodeIO, "unexpected candidates csv header").
			WithDetail(fmt.Sprintf("path=%s columns=%d", path, len(rows[0])))
	}

	records := make([]CandidateRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIO, "parse candidate index").
				WithDetail(fmt.Sprintf("path=%s line=%d", path, i+2))
		}
		mask, err := strconv.ParseUint(row[3], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIO, "parse candidate mask").
				WithDetail(fmt.Sprintf("path=%s line=%d", path, i+2))
		}
		n, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIO, "parse candidate substitution count").
				WithDetail(fmt.Sprintf("path=%s line=%d", path, i+2))
		}
		records = append(records, CandidateRecord{
			Index:       idx,
			SMILES:      row[1],
			Formula:     row[2],
			Mask:        mask,
			Substituted: n,
		})
	}
	return records, nil
}
