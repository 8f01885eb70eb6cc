// Package config defines all configuration structures for the qsarpipe
// toolchain.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// PipelineConfig holds settings shared by every stage.
type PipelineConfig struct {
	// SeedSMILES is the structural identifier of the parent molecule whose
	// chlorine-substitution isomers are enumerated.
	SeedSMILES string `mapstructure:"seed_smiles"`

	// OutputDir is the root directory for all stage artifacts.  Stage
	// subdirectories (img/, geom/, models/) are created beneath it.
	OutputDir string `mapstructure:"output_dir"`
}

// EnumerationConfig holds isomer-enumeration tunables.
type EnumerationConfig struct {
	// Substituent is the element symbol grafted onto each selected position.
	Substituent string `mapstructure:"substituent"`

	// AromaticOnly restricts substitutable positions to aromatic C–H sites.
	AromaticOnly bool `mapstructure:"aromatic_only"`

	// MaxPositions caps the number of substitutable sites k; the search space
	// is 2^k so anything beyond ~20 is refused rather than attempted.
	MaxPositions int `mapstructure:"max_positions"`

	// MaxSimilarity, when in (0,1), drops candidates whose Tanimoto
	// similarity to an already-accepted candidate exceeds the threshold.
	// Zero disables the diversity filter.
	MaxSimilarity float64 `mapstructure:"max_similarity"`
}

// RenderConfig holds 2D depiction tunables.
type RenderConfig struct {
	// MaxSize is the longest canvas edge in pixels.
	MaxSize int `mapstructure:"max_size"`
}

// GeometryConfig holds 3D embedding tunables.
type GeometryConfig struct {
	// RefineSteps is the number of steepest-descent refinement iterations
	// applied after the initial coordinate guess.
	RefineSteps int `mapstructure:"refine_steps"`

	// Seed makes the embedding perturbation reproducible.
	Seed int64 `mapstructure:"seed"`
}

// LigPrepConfig holds the external ligand-preparation tool settings.
type LigPrepConfig struct {
	// Command is the tool executable ("obabel", "prepare_ligand4.py", ...).
	// Empty disables the conversion step.
	Command string `mapstructure:"command"`

	// Args is the argument template; the placeholders {in} and {out} are
	// replaced with the PDB input path and PDBQT output path.
	Args []string `mapstructure:"args"`

	// Timeout bounds a single conversion subprocess.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PubChemConfig holds the compound-registry lookup settings.
type PubChemConfig struct {
	// BaseURL points at the PUG REST service root.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds a single lookup request.
	Timeout time.Duration `mapstructure:"timeout"`

	// Disabled skips the registry lookup entirely (offline runs).
	Disabled bool `mapstructure:"disabled"`
}

// DescriptorConfig holds the descriptor-computation settings.
type DescriptorConfig struct {
	// Command is an optional external descriptor tool invoked once per
	// candidate; it must print one "name=value" pair per line on stdout.
	// The placeholder {smiles} is replaced with the candidate SMILES.
	// Empty means built-in graph descriptors only.
	Command string `mapstructure:"command"`

	// Args is the argument template for Command.
	Args []string `mapstructure:"args"`

	// Timeout bounds a single descriptor subprocess.
	Timeout time.Duration `mapstructure:"timeout"`

	// FingerprintBits is the Morgan fingerprint length used for the
	// fingerprint-density descriptor and the diversity filter.
	FingerprintBits int `mapstructure:"fingerprint_bits"`

	// FingerprintRadius is the Morgan neighborhood radius.
	FingerprintRadius int `mapstructure:"fingerprint_radius"`
}

// ModelConfig holds training and prediction tunables.
type ModelConfig struct {
	// TrainingCSV is the path of the descriptor + target matrix used by the
	// train stage.
	TrainingCSV string `mapstructure:"training_csv"`

	// TargetColumn names the regression target (pEC50 by convention).
	TargetColumn string `mapstructure:"target_column"`

	// IDColumn names the identifier column that is carried through, never
	// used as a feature.
	IDColumn string `mapstructure:"id_column"`

	// Families selects which model families to train.  Valid entries:
	// "ridge", "lasso", "knn", "forest".  Empty means all of them.
	Families []string `mapstructure:"families"`

	// Folds is the k in k-fold cross-validated grid search.
	Folds int `mapstructure:"folds"`

	// TestFraction is the held-out share used for the final evaluation
	// metrics and scatter plot.
	TestFraction float64 `mapstructure:"test_fraction"`

	// Seed drives the train/test shuffle and the random forest.
	Seed int64 `mapstructure:"seed"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the whole pipeline.  Every
// stage service reads its settings from the relevant sub-struct.
type Config struct {
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Enumeration EnumerationConfig `mapstructure:"enumeration"`
	Render      RenderConfig      `mapstructure:"render"`
	Geometry    GeometryConfig    `mapstructure:"geometry"`
	LigPrep     LigPrepConfig     `mapstructure:"ligprep"`
	PubChem     PubChemConfig     `mapstructure:"pubchem"`
	Descriptor  DescriptorConfig  `mapstructure:"descriptor"`
	Model       ModelConfig       `mapstructure:"model"`
	Log         LogConfig         `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the pipeline.
func (c *Config) Validate() error {
	if c.Pipeline.SeedSMILES == "" {
		return fmt.Errorf("config: pipeline.seed_smiles is required")
	}
	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("config: pipeline.output_dir is required")
	}

	if c.Enumeration.Substituent == "" {
		return fmt.Errorf("config: enumeration.substituent is required")
	}
	if c.Enumeration.MaxPositions < 1 || c.Enumeration.MaxPositions > 30 {
		return fmt.Errorf("config: enumeration.max_positions %d is out of range [1, 30]", c.Enumeration.MaxPositions)
	}
	if c.Enumeration.MaxSimilarity < 0 || c.Enumeration.MaxSimilarity > 1 {
		return fmt.Errorf("config: enumeration.max_similarity %g is out of range [0, 1]", c.Enumeration.MaxSimilarity)
	}

	if c.Render.MaxSize < 64 {
		return fmt.Errorf("config: render.max_size must be ≥ 64, got %d", c.Render.MaxSize)
	}

	if c.Geometry.RefineSteps < 0 {
		return fmt.Errorf("config: geometry.refine_steps must be ≥ 0, got %d", c.Geometry.RefineSteps)
	}

	if c.Descriptor.FingerprintBits < 64 {
		return fmt.Errorf("config: descriptor.fingerprint_bits must be ≥ 64, got %d", c.Descriptor.FingerprintBits)
	}
	if c.Descriptor.FingerprintRadius < 0 || c.Descriptor.FingerprintRadius > 6 {
		return fmt.Errorf("config: descriptor.fingerprint_radius %d is out of range [0, 6]", c.Descriptor.FingerprintRadius)
	}

	if c.Model.Folds < 2 {
		return fmt.Errorf("config: model.folds must be ≥ 2, got %d", c.Model.Folds)
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("config: model.test_fraction %g is out of range (0, 1)", c.Model.TestFraction)
	}
	for _, f := range c.Model.Families {
		switch f {
		case "ridge", "lasso", "knn", "forest":
		default:
			return fmt.Errorf("config: model.families entry %q is invalid; expected ridge|lasso|knn|forest", f)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
