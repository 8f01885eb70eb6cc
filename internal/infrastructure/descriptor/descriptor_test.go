package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

func TestCalculatorCompute(t *testing.T) {
	c := NewCalculator(1024, 2)
	values, err := c.Compute("Clc1ccccc1")
	require.NoError(t, err)

	for _, col := range BuiltinColumns {
		_, ok := values[col]
		assert.True(t, ok, "missing column %s", col)
	}
	assert.Equal(t, 1.0, values["num_chlorine"])
	assert.Equal(t, 7.0, values["heavy_atoms"])
	assert.Equal(t, 1.0, values["ring_count"])
	assert.Greater(t, values["mol_weight"], 100.0)
	assert.Greater(t, values["fp_density"], 0.0)
}

func TestCalculatorComputeBadSMILES(t *testing.T) {
	c := NewCalculator(1024, 2)
	_, err := c.Compute("not a molecule((")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorFailed))
}

func writeFakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakedesc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExternalCompute(t *testing.T) {
	tool := writeFakeTool(t, `echo "polarizability=12.5"; echo "# comment"; echo "refractivity=30.1"`)
	e := NewExternal(tool, []string{"{smiles}"}, 10*time.Second, logging.NewNopLogger())

	values, err := e.Compute(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"polarizability": 12.5, "refractivity": 30.1}, values)
}

func TestExternalComputeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"nonzero exit", `echo "boom" >&2; exit 1`, errors.ErrCodeDescriptorFailed},
		{"malformed output", `echo "no equals sign"`, errors.ErrCodeDescriptorFailed},
		{"non-numeric value", `echo "x=abc"`, errors.ErrCodeDescriptorFailed},
		{"empty output", `true`, errors.ErrCodeDescriptorFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExternal(writeFakeTool(t, tt.body), nil, 10*time.Second, logging.NewNopLogger())
			_, err := e.Compute(context.Background(), "CCO")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code))
		})
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")

	c, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.PutSuccess("CCO", map[string]float64{"a": 1.5})
	c.PutFailure("CCN")
	require.NoError(t, c.Save())

	c2, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c2.Len())

	values, failed, ok := c2.Get("CCO")
	assert.True(t, ok)
	assert.False(t, failed)
	assert.Equal(t, map[string]float64{"a": 1.5}, values)

	_, failed, ok = c2.Get("CCN")
	assert.True(t, ok)
	assert.True(t, failed)

	_, _, ok = c2.Get("CCC")
	assert.False(t, ok)
}

func TestCacheSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")
	c, err := LoadCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestServiceMergesExternal(t *testing.T) {
	tool := writeFakeTool(t, `echo "polar=7.5"`)
	cache, err := LoadCache(filepath.Join(t.TempDir(), "cache.jsonl"))
	require.NoError(t, err)

	s := NewService(
		NewCalculator(512, 2),
		NewExternal(tool, []string{"{smiles}"}, 10*time.Second, logging.NewNopLogger()),
		cache,
		logging.NewNopLogger(),
	)

	values, err := s.Compute(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, 7.5, values["ext_polar"])
	assert.Contains(t, values, "mol_weight")

	// Second call hits the cache.
	cached, failed, ok := cache.Get("CCO")
	assert.True(t, ok)
	assert.False(t, failed)
	assert.Equal(t, 7.5, cached["polar"])
}

func TestServiceRecordsExternalFailure(t *testing.T) {
	tool := writeFakeTool(t, `exit 1`)
	cache, err := LoadCache(filepath.Join(t.TempDir(), "cache.jsonl"))
	require.NoError(t, err)

	s := NewService(
		NewCalculator(512, 2),
		NewExternal(tool, nil, 10*time.Second, logging.NewNopLogger()),
		cache,
		logging.NewNopLogger(),
	)

	// Built-in columns still come back; the failure is cached.
	values, err := s.Compute(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Contains(t, values, "mol_weight")
	assert.NotContains(t, values, "ext_polar")

	_, failed, ok := cache.Get("CCO")
	assert.True(t, ok)
	assert.True(t, failed)
}

func TestServiceBuiltinOnly(t *testing.T) {
	s := NewService(NewCalculator(512, 2), nil, nil, logging.NewNopLogger())
	values, err := s.Compute(context.Background(), "Oc1ccccc1")
	require.NoError(t, err)
	assert.Len(t, values, len(BuiltinColumns))
}
