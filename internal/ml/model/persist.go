package model

import (
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chemtools/qsarpipe/internal/ml/dataset"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// envelopeVersion guards against loading files written by an incompatible
// layout.
const envelopeVersion = 1

// Envelope wraps a fitted model with everything prediction needs: the
// feature column order, the fitted scaler, and the winning
// hyperparameters.
type Envelope struct {
	Version   int                `msgpack:"version"`
	Family    string             `msgpack:"family"`
	Params    map[string]float64 `msgpack:"params"`
	Columns   []string           `msgpack:"columns"`
	Scaler    *dataset.Scaler    `msgpack:"scaler"`
	TrainedAt time.Time          `msgpack:"trained_at"`
	State     msgpack.RawMessage `msgpack:"state"`
}

// Save persists a fitted model to path.
func Save(path string, r Regressor, params map[string]float64, columns []string, scaler *dataset.Scaler) error {
	state, err := msgpack.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal model state").
			WithDetail("family=" + r.Family())
	}
	env := Envelope{
		Version:   envelopeVersion,
		Family:    r.Family(),
		Params:    params,
		Columns:   columns,
		Scaler:    scaler,
		TrainedAt: time.Now().UTC(),
		State:     state,
	}
	data, err := msgpack.Marshal(&env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal model envelope")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "write model file").
			WithDetail("path=" + path)
	}
	return nil
}

// Load reads a model file and reconstructs the fitted Regressor.
func Load(path string) (Regressor, *Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeModelLoadFailed, "read model file").
			WithDetail("path=" + path)
	}
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeModelLoadFailed, "unmarshal model envelope").
			WithDetail("path=" + path)
	}
	if env.Version != envelopeVersion {
		return nil, nil, errors.Newf(errors.ErrCodeModelLoadFailed,
			"unsupported model file version %d", env.Version)
	}

	r, err := New(env.Family, env.Params)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeModelLoadFailed, "unknown model family in file").
			WithDetail("family=" + env.Family)
	}
	if err := msgpack.Unmarshal(env.State, r); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeModelLoadFailed, "unmarshal model state").
			WithDetail("family=" + env.Family)
	}
	return r, &env, nil
}
