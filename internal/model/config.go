package model

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Overwrite modes accepted by output.overwrite
const (
	OverwritePrompt = "prompt"
	OverwriteAlways = "always"
	OverwriteNever  = "never"
)

// Config holds all otpraat settings
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Grammar GrammarConfig `yaml:"grammar" mapstructure:"grammar"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig describes which files are accepted as tableaux
type InputConfig struct {
	Extensions []string `yaml:"extensions" mapstructure:"extensions" validate:"min=1,dive,startswith=."`
}

// OutputConfig controls naming and overwriting of generated files
type OutputConfig struct {
	GrammarExtension string `yaml:"grammar_extension" mapstructure:"grammar_extension" validate:"required,startswith=."`
	PairExtension    string `yaml:"pair_extension" mapstructure:"pair_extension" validate:"required,startswith=.,nefield=GrammarExtension"`
	Overwrite        string `yaml:"overwrite" mapstructure:"overwrite" validate:"oneof=prompt always never"`
}

// GrammarConfig holds the ranking parameters written for every constraint
type GrammarConfig struct {
	Ranking    float64 `yaml:"ranking" mapstructure:"ranking"`
	Disharmony float64 `yaml:"disharmony" mapstructure:"disharmony"`
	Plasticity float64 `yaml:"plasticity" mapstructure:"plasticity" validate:"gte=0"`
}

// BatchConfig controls parallel conversion of many files
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=1"`
}

// CacheConfig controls the in-memory parse cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Format  string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Extensions: []string{".txt"},
		},
		Output: OutputConfig{
			GrammarExtension: ".OTGrammar",
			PairExtension:    ".PairDistribution",
			Overwrite:        OverwritePrompt,
		},
		Grammar: GrammarConfig{
			Ranking:    100,
			Disharmony: 100,
			Plasticity: 1,
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Log: LogConfig{
			Format: "console",
		},
	}
}

// Validate checks the configuration and reports every invalid field at once
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}
