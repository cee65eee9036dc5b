package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkowalski/hypertuner/internal/budget"
	"github.com/mkowalski/hypertuner/internal/metrics"
	"github.com/mkowalski/hypertuner/internal/train"
)

// #region search-config

// SearchConfig is the user-facing tuner configuration, loadable from a
// YAML file with sane zero-value defaults filled in by Normalize.
type SearchConfig struct {
	Project      string `yaml:"project"`
	Architecture string `yaml:"architecture"`

	LocalDir  string `yaml:"local_dir"`
	ExportDir string `yaml:"export_dir"`
	TmpDir    string `yaml:"tmp_dir"`
	HistoryDB string `yaml:"history_db"`

	MaxFailStreak int `yaml:"max_fail_streak"`
	MaxParams     int `yaml:"max_params"` // <= 0 means no ceiling
	Budget        int `yaml:"budget"`

	BatchSize int      `yaml:"batch_size"`
	Epochs    int      `yaml:"epochs"`
	Callbacks []string `yaml:"callbacks"`

	// KeyMetrics are "name:direction" entries, e.g. "val_acc:max".
	// Empty selects the default loss/val_loss/acc/val_acc set.
	KeyMetrics []string `yaml:"key_metrics"`
}

// Default returns the baseline configuration.
func Default() SearchConfig {
	return SearchConfig{
		Project:       "default",
		Architecture:  "default",
		LocalDir:      "results",
		ExportDir:     "export",
		TmpDir:        "tmp",
		MaxFailStreak: budget.DefaultMaxFailStreak,
		Budget:        100,
		BatchSize:     32,
		Epochs:        10,
	}
}

// #endregion search-config

// #region load

// Load reads a YAML config file, normalizes it, and validates it.
func Load(path string) (SearchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SearchConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return SearchConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills zero values with defaults.
func (c *SearchConfig) Normalize() {
	def := Default()
	if c.Project == "" {
		c.Project = def.Project
	}
	if c.Architecture == "" {
		c.Architecture = def.Architecture
	}
	if c.LocalDir == "" {
		c.LocalDir = def.LocalDir
	}
	if c.ExportDir == "" {
		c.ExportDir = def.ExportDir
	}
	if c.TmpDir == "" {
		c.TmpDir = def.TmpDir
	}
	if c.MaxFailStreak <= 0 {
		c.MaxFailStreak = def.MaxFailStreak
	}
	if c.Budget <= 0 {
		c.Budget = def.Budget
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Epochs <= 0 {
		c.Epochs = def.Epochs
	}
}

// Validate fails fast on malformed entries. Key metrics in particular
// are checked once here rather than warn-and-skipped at record time.
func (c SearchConfig) Validate() error {
	if _, err := metrics.Parse(c.KeyMetrics); err != nil {
		return err
	}
	return nil
}

// ParsedKeyMetrics returns the typed key-metric set.
func (c SearchConfig) ParsedKeyMetrics() ([]metrics.KeyMetric, error) {
	return metrics.Parse(c.KeyMetrics)
}

// TrainSettings bundles the training knobs for instance construction.
func (c SearchConfig) TrainSettings() train.Settings {
	return train.Settings{
		BatchSize:  c.BatchSize,
		Epochs:     c.Epochs,
		Checkpoint: true,
		Callbacks:  c.Callbacks,
	}
}

// #endregion load
