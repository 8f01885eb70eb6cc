package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all pipeline settings.
const envPrefix = "QSAR"

// newViper builds a pre-configured Viper instance with the pipeline's
// standard settings: YAML file type, QSAR_ env prefix, automatic env binding,
// and a key replacer that maps "." → "_" so that nested keys like
// "pipeline.seed_smiles" resolve to "QSAR_PIPELINE_SEED_SMILES".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindKeys(v)
	return v
}

// configKeys lists every settable key.  Viper only consults the environment
// for keys it knows about, so each key is registered with an empty default;
// ApplyDefaults later fills real values for anything still unset.
var configKeys = []string{
	"pipeline.seed_smiles",
	"pipeline.output_dir",
	"enumeration.substituent",
	"enumeration.aromatic_only",
	"enumeration.max_positions",
	"enumeration.max_similarity",
	"render.max_size",
	"geometry.refine_steps",
	"geometry.seed",
	"ligprep.command",
	"ligprep.args",
	"ligprep.timeout",
	"pubchem.base_url",
	"pubchem.timeout",
	"pubchem.disabled",
	"descriptor.command",
	"descriptor.args",
	"descriptor.timeout",
	"descriptor.fingerprint_bits",
	"descriptor.fingerprint_radius",
	"model.training_csv",
	"model.target_column",
	"model.id_column",
	"model.families",
	"model.folds",
	"model.test_fraction",
	"model.seed",
	"log.level",
	"log.format",
	"log.output",
}

func bindKeys(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges any QSAR_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from QSAR_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	QSAR_<SECTION>_<FIELD>   e.g.  QSAR_PIPELINE_OUTPUT_DIR, QSAR_MODEL_FOLDS
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always
// fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
