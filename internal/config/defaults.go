// Package config provides configuration loading, defaults, and validation
// for the qsarpipe toolchain.
package config

import "time"

const (
	// DefaultSeedSMILES is 2-phenylphenol, the historical seed of this
	// workflow; override it in the config file for other parents.
	DefaultSeedSMILES = "Oc1ccccc1-c1ccccc1"

	DefaultOutputDir = "./out"

	DefaultSubstituent  = "Cl"
	DefaultMaxPositions = 20

	DefaultRenderMaxSize = 480

	DefaultRefineSteps = 200

	DefaultLigPrepTimeout = 60 * time.Second

	DefaultPubChemBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	DefaultPubChemTimeout = 15 * time.Second

	DefaultDescriptorTimeout   = 60 * time.Second
	DefaultFingerprintBits     = 2048
	DefaultFingerprintRadius   = 2

	DefaultTargetColumn = "pEC50"
	DefaultIDColumn     = "smiles"
	DefaultFolds        = 5
	DefaultTestFraction = 0.2

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ApplyDefaults fills every zero-value field in cfg with the pipeline
// default.  Fields that have already been set by the caller are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Pipeline.SeedSMILES == "" {
		cfg.Pipeline.SeedSMILES = DefaultSeedSMILES
	}
	if cfg.Pipeline.OutputDir == "" {
		cfg.Pipeline.OutputDir = DefaultOutputDir
	}

	if cfg.Enumeration.Substituent == "" {
		cfg.Enumeration.Substituent = DefaultSubstituent
	}
	if cfg.Enumeration.MaxPositions == 0 {
		cfg.Enumeration.MaxPositions = DefaultMaxPositions
	}

	if cfg.Render.MaxSize == 0 {
		cfg.Render.MaxSize = DefaultRenderMaxSize
	}

	if cfg.Geometry.RefineSteps == 0 {
		cfg.Geometry.RefineSteps = DefaultRefineSteps
	}

	if cfg.LigPrep.Timeout == 0 {
		cfg.LigPrep.Timeout = DefaultLigPrepTimeout
	}

	if cfg.PubChem.BaseURL == "" {
		cfg.PubChem.BaseURL = DefaultPubChemBaseURL
	}
	if cfg.PubChem.Timeout == 0 {
		cfg.PubChem.Timeout = DefaultPubChemTimeout
	}

	if cfg.Descriptor.Timeout == 0 {
		cfg.Descriptor.Timeout = DefaultDescriptorTimeout
	}
	if cfg.Descriptor.FingerprintBits == 0 {
		cfg.Descriptor.FingerprintBits = DefaultFingerprintBits
	}
	if cfg.Descriptor.FingerprintRadius == 0 {
		cfg.Descriptor.FingerprintRadius = DefaultFingerprintRadius
	}

	if cfg.Model.TargetColumn == "" {
		cfg.Model.TargetColumn = DefaultTargetColumn
	}
	if cfg.Model.IDColumn == "" {
		cfg.Model.IDColumn = DefaultIDColumn
	}
	if cfg.Model.Folds == 0 {
		cfg.Model.Folds = DefaultFolds
	}
	if cfg.Model.TestFraction == 0 {
		cfg.Model.TestFraction = DefaultTestFraction
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
