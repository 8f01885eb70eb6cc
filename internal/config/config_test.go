package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing_seed", func(c *Config) { c.Pipeline.SeedSMILES = "" }, "seed_smiles"},
		{"missing_output", func(c *Config) { c.Pipeline.OutputDir = "" }, "output_dir"},
		{"missing_substituent", func(c *Config) { c.Enumeration.Substituent = "" }, "substituent"},
		{"max_positions_high", func(c *Config) { c.Enumeration.MaxPositions = 31 }, "max_positions"},
		{"max_similarity_high", func(c *Config) { c.Enumeration.MaxSimilarity = 1.5 }, "max_similarity"},
		{"render_tiny", func(c *Config) { c.Render.MaxSize = 10 }, "max_size"},
		{"refine_negative", func(c *Config) { c.Geometry.RefineSteps = -1 }, "refine_steps"},
		{"fp_bits_small", func(c *Config) { c.Descriptor.FingerprintBits = 8 }, "fingerprint_bits"},
		{"fp_radius_big", func(c *Config) { c.Descriptor.FingerprintRadius = 9 }, "fingerprint_radius"},
		{"folds_small", func(c *Config) { c.Model.Folds = 1 }, "folds"},
		{"test_fraction", func(c *Config) { c.Model.TestFraction = 1.0 }, "test_fraction"},
		{"bad_family", func(c *Config) { c.Model.Families = []string{"svm"} }, "families"},
		{"bad_level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad_format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestApplyDefaults_DoesNotOverwrite(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.SeedSMILES = "c1ccccc1"
	cfg.Model.Folds = 3
	ApplyDefaults(cfg)

	assert.Equal(t, "c1ccccc1", cfg.Pipeline.SeedSMILES)
	assert.Equal(t, 3, cfg.Model.Folds)
	assert.Equal(t, DefaultSubstituent, cfg.Enumeration.Substituent)
	assert.Equal(t, DefaultPubChemBaseURL, cfg.PubChem.BaseURL)
}

func TestApplyDefaults_NilSafe(t *testing.T) {
	ApplyDefaults(nil)
}
