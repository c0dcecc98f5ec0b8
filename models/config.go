// Package models defines data structures for configuration and counting results.
package models

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/dtnitsch/log-word-counter/pkg/counter"
	"github.com/dtnitsch/log-word-counter/pkg/tokenizer"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDir          = "textos"
	DefaultSuffix       = ".log"
	DefaultMaxLineBytes = counter.DefaultMaxLineBytes
	DefaultDelimiters   = tokenizer.DefaultDelimiters
	DefaultFormat       = "text"
)

// ErrInvalidConfig marks configuration that cannot be used to start a run.
var ErrInvalidConfig = errors.New("invalid config")

// CountConfig holds the tunables of a counting run.
// Values come from an optional YAML file and are overridden by CLI flags.
type CountConfig struct {
	Dir          string `yaml:"dir"`
	Suffix       string `yaml:"suffix"`
	Threads      int    `yaml:"threads"`
	MaxLineBytes int    `yaml:"max_line_bytes"`
	Delimiters   string `yaml:"delimiters"`
	Format       string `yaml:"format"`
	Progress     *bool  `yaml:"progress"`
}

// DefaultCountConfig returns the configuration used when nothing else is given.
func DefaultCountConfig() CountConfig {
	progress := true
	return CountConfig{
		Dir:          DefaultDir,
		Suffix:       DefaultSuffix,
		Threads:      runtime.NumCPU(),
		MaxLineBytes: DefaultMaxLineBytes,
		Delimiters:   DefaultDelimiters,
		Format:       DefaultFormat,
		Progress:     &progress,
	}
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (CountConfig, error) {
	cfg := DefaultCountConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return CountConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fc CountConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return CountConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Merge(fc)
	return cfg, nil
}

// Merge overwrites cfg with every field set in o.
func (cfg *CountConfig) Merge(o CountConfig) {
	if o.Dir != "" {
		cfg.Dir = o.Dir
	}
	if o.Suffix != "" {
		cfg.Suffix = o.Suffix
	}
	if o.Threads != 0 {
		cfg.Threads = o.Threads
	}
	if o.MaxLineBytes != 0 {
		cfg.MaxLineBytes = o.MaxLineBytes
	}
	if o.Delimiters != "" {
		cfg.Delimiters = o.Delimiters
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.Progress != nil {
		p := *o.Progress
		cfg.Progress = &p
	}
}

// ShowProgress reports whether per-thread progress lines are printed.
func (cfg CountConfig) ShowProgress() bool {
	return cfg.Progress == nil || *cfg.Progress
}

// Validate checks the merged configuration.
func (cfg CountConfig) Validate() error {
	if strings.TrimSpace(cfg.Dir) == "" {
		return fmt.Errorf("%w: dir must not be empty", ErrInvalidConfig)
	}
	if cfg.Suffix == "" {
		return fmt.Errorf("%w: suffix must not be empty", ErrInvalidConfig)
	}
	if cfg.Threads < 1 {
		return fmt.Errorf("%w: threads must be >= 1, got %d", ErrInvalidConfig, cfg.Threads)
	}
	if cfg.MaxLineBytes < 1 {
		return fmt.Errorf("%w: max_line_bytes must be >= 1, got %d", ErrInvalidConfig, cfg.MaxLineBytes)
	}
	if cfg.Delimiters == "" {
		return fmt.Errorf("%w: delimiters must not be empty", ErrInvalidConfig)
	}
	switch cfg.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: format must be text, json or yaml, got %q", ErrInvalidConfig, cfg.Format)
	}
	return nil
}
