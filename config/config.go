// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultFile is the name of the config file looked for in the working dir
	DefaultFile = "germinal.yaml"

	// EnvPrefix is the prefix of environment variables that override settings,
	// ex: GERMINAL_TARGET_TARGET_HOTSPOTS overrides target.target_hotspots
	EnvPrefix = "GERMINAL"
)

// Run settings are every top-level key that isn't the target or filter section.
type Run struct {
	// root of the run's output dirs: <project_dir>/<results_dir>/<experiment_name>/<run_config>
	ProjectDir     string `mapstructure:"project_dir"`
	ResultsDir     string `mapstructure:"results_dir"`
	ExperimentName string `mapstructure:"experiment_name"`
	RunConfig      string `mapstructure:"run_config"`

	// dir with binder templates and starting complexes
	StructureDir string `mapstructure:"pdb_dir"`

	// how to build starting complexes: "native" or the path to an executable
	StructureCreator string `mapstructure:"structure_creator"`

	// binder type, "nb" (nanobody) or "scfv"
	Type string `mapstructure:"type"`

	// lengths of the CDR loops and the framework segments around them
	CDRLengths []int `mapstructure:"cdr_lengths"`
	FWLengths  []int `mapstructure:"fw_lengths"`

	// whether to design with all five multimer models
	UseMultimerDesign bool `mapstructure:"use_multimer_design"`

	// redesign bias, negative values disable it
	BiasRedesign float64 `mapstructure:"bias_redesign"`

	// every other run setting, passed through to later stages
	Extra map[string]interface{} `mapstructure:",remain"`
}

// Target settings are about the protein being designed against.
type Target struct {
	Name          string `mapstructure:"target_name"`
	StructurePath string `mapstructure:"target_pdb_path"`
	BinderChain   string `mapstructure:"binder_chain"`

	// one chain, a comma separated list of chains, or a YAML list of chains
	TargetChain []string `mapstructure:"target_chain"`

	// comma separated residues or ranges, ex: "A23,B5-10"
	Hotspots string `mapstructure:"target_hotspots"`

	// whether the hotspots were already rewritten into concatenated numbering
	Remapped bool `mapstructure:"hotspots_remapped"`
}

// Filter holds the trajectory filters. They're only carried through.
type Filter struct {
	Initial map[string]interface{} `mapstructure:"initial"`
	Final   map[string]interface{} `mapstructure:"final"`
}

// Config is the root-level settings struct and is a mix
// of settings available in the config file and those
// available from the command line
type Config struct {
	Run    Run    `mapstructure:",squash"`
	Target Target `mapstructure:"target"`
	Filter Filter `mapstructure:"filter"`
}

// SetDefaults sets the fallback settings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project_dir", ".")
	v.SetDefault("results_dir", "results")
	v.SetDefault("experiment_name", "germinal_run")
	v.SetDefault("run_config", "")
	v.SetDefault("pdb_dir", "pdbs")
	v.SetDefault("structure_creator", "native")
	v.SetDefault("type", "nb")
	v.SetDefault("use_multimer_design", false)
	v.SetDefault("bias_redesign", 0.0)
	v.SetDefault("target.binder_chain", "B")
	v.SetDefault("target.target_chain", "A")
	v.SetDefault("target.target_hotspots", "")
}

// Read loads defaults, a .env file next to the config file (if there is one),
// GERMINAL_ environment variables, and the config file at path into v.
//
// A missing config file is only an error if path isn't the default.
func Read(v *viper.Viper, path string) error {
	SetDefaults(v)

	if path == "" {
		path = DefaultFile
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && path == DefaultFile {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return nil
}

// New returns a new Config struct populated by Viper settings
// (from the config file, the environment and/or command line arguments).
func New(v *viper.Viper) (*Config, error) {
	var c Config

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&c, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &c, nil
}

// Process splits all settings into the four sections later stages expect:
// "run" (everything but target and filter), "target", "filters_initial"
// and "filters_final".
func Process(v *viper.Viper) map[string]interface{} {
	all := v.AllSettings()

	section := func(m map[string]interface{}, key string) map[string]interface{} {
		if s, ok := m[key].(map[string]interface{}); ok {
			return s
		}
		return map[string]interface{}{}
	}

	target := section(all, "target")
	filter := section(all, "filter")

	run := make(map[string]interface{}, len(all))
	for k, val := range all {
		if k != "target" && k != "filter" {
			run[k] = val
		}
	}

	return map[string]interface{}{
		"run":             run,
		"target":          target,
		"filters_initial": section(filter, "initial"),
		"filters_final":   section(filter, "final"),
	}
}
