// Package config provides Viper-based configuration loading for shipyard.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DataConfig locates the extracted game data.
type DataConfig struct {
	// Dir is the root of the XML record tree.
	Dir string `mapstructure:"dir"`
	// IndexDir holds the five JSON index files. Defaults to Dir.
	IndexDir string `mapstructure:"index_dir"`
}

// Index returns the directory the index files are read from and written to.
//
// Postcondition: Returns IndexDir when set, otherwise Dir.
func (d DataConfig) Index() string {
	if d.IndexDir != "" {
		return d.IndexDir
	}
	return d.Dir
}

// OutputConfig controls where reports are written.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Pretty bool   `mapstructure:"pretty"`
}

// RunConfig holds batch execution settings.
type RunConfig struct {
	// Workers bounds concurrent vehicle resolution.
	Workers int `mapstructure:"workers"`
	// MaxDepth bounds tree assembly recursion.
	MaxDepth int `mapstructure:"max_depth"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// CalcConfig holds the empirical constants used by the built-in calculators.
type CalcConfig struct {
	ShieldRegenFactor      float64 `mapstructure:"shield_regen_factor"`
	FrictionCap            float64 `mapstructure:"friction_cap"`
	SuspensionStiffnessCap float64 `mapstructure:"suspension_stiffness_cap"`
	TorqueScaleCap         float64 `mapstructure:"torque_scale_cap"`
}

// ScriptingConfig locates optional Lua calculators.
type ScriptingConfig struct {
	// Dir is scanned for *.lua calculators. Empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps VM instructions per call. Zero means unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Output    OutputConfig    `mapstructure:"output"`
	Run       RunConfig       `mapstructure:"run"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Calc      CalcConfig      `mapstructure:"calc"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Data.Dir == "" {
		errs = append(errs, "data.dir must not be empty")
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output.dir must not be empty")
	}
	if err := validateRun(c.Run); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCalc(c.Calc); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRun(r RunConfig) error {
	var errs []string
	if r.Workers < 1 {
		errs = append(errs, fmt.Sprintf("run.workers must be >= 1, got %d", r.Workers))
	}
	if r.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("run.max_depth must be >= 1, got %d", r.MaxDepth))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateCalc(c CalcConfig) error {
	var errs []string
	for name, v := range map[string]float64{
		"calc.shield_regen_factor":      c.ShieldRegenFactor,
		"calc.friction_cap":             c.FrictionCap,
		"calc.suspension_stiffness_cap": c.SuspensionStiffnessCap,
		"calc.torque_scale_cap":         c.TorqueScaleCap,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %g", name, v))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SHIPYARD_ prefix
	v.SetEnvPrefix("SHIPYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.index_dir", "")

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.pretty", false)

	v.SetDefault("run.workers", 8)
	v.SetDefault("run.max_depth", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("calc.shield_regen_factor", 0.66)
	v.SetDefault("calc.friction_cap", 3.0)
	v.SetDefault("calc.suspension_stiffness_cap", 150000.0)
	v.SetDefault("calc.torque_scale_cap", 4.0)

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 1000000)
}
