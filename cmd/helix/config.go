package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/nn"
	"github.com/samcharles93/helix/internal/optim"
)

// Config represents the helix configuration file (~/.config/helix/config.yaml).
// Scalar fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	Device    string `yaml:"device"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Loop defaults
	Epochs          *int     `yaml:"epochs"`
	BatchSize       *int     `yaml:"batch_size"`
	Seed            *int64   `yaml:"seed"`
	MaskRatio       *float64 `yaml:"mask_ratio"`
	MaxLen          *int     `yaml:"max_len"`
	Temperature     *float64 `yaml:"temperature"`
	EmbeddingPeriod *int     `yaml:"embedding_period"`

	// Species fixes the species vocabulary and its order.
	Species []string `yaml:"species"`

	Model ModelConfig  `yaml:"model"`
	Optim optim.Config `yaml:"optimizer"`

	// Server
	StatusAddress string `yaml:"status_address"`
}

// ModelConfig holds the architecture knobs. Vocabulary, class and species
// counts come from the data.
type ModelConfig struct {
	Embed  int  `yaml:"embed_dim"`
	Hidden int  `yaml:"hidden_dim"`
	Window *int `yaml:"window"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "helix", "config.yaml")
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing default file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyCommonConfig applies config file defaults to the global flags when the
// corresponding CLI flag was not explicitly set.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.Device != "" && !c.IsSet("device") {
		deviceName = cfg.Device
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyLoopConfig applies config file defaults shared by train and eval.
func applyLoopConfig(c *cli.Command, cfg Config) {
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		batchSize = *cfg.BatchSize
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	if cfg.MaskRatio != nil && !c.IsSet("mask-ratio") {
		maskRatio = *cfg.MaskRatio
	}
	if cfg.MaxLen != nil && !c.IsSet("max-len") {
		maxLen = *cfg.MaxLen
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		temperature = *cfg.Temperature
	}
	if cfg.EmbeddingPeriod != nil && !c.IsSet("embedding-period") {
		embedPeriod = *cfg.EmbeddingPeriod
	}
	if cfg.StatusAddress != "" && !c.IsSet("status-addr") {
		statusAddr = cfg.StatusAddress
	}
}

// applyTrainConfig applies config file defaults to train-only flags.
func applyTrainConfig(c *cli.Command, cfg Config) {
	applyLoopConfig(c, cfg)
	if cfg.Epochs != nil && !c.IsSet("epochs") {
		epochs = *cfg.Epochs
	}
	if cfg.Optim.LR > 0 && !c.IsSet("lr") {
		learningRate = cfg.Optim.LR
	}
	if cfg.Optim.Name != "" && !c.IsSet("optimizer") {
		optimizerName = cfg.Optim.Name
	}
}

// modelConfig sizes the model for a species vocabulary.
func (c Config) modelConfig(numSpecies int, seed int64) nn.Config {
	mc := nn.Config{
		Vocab:   dataset.VocabSize,
		Species: numSpecies,
		Classes: dataset.NumClasses,
		Embed:   16,
		Hidden:  32,
		Window:  3,
		Seed:    seed,
	}
	if c.Model.Embed > 0 {
		mc.Embed = c.Model.Embed
	}
	if c.Model.Hidden > 0 {
		mc.Hidden = c.Model.Hidden
	}
	if c.Model.Window != nil {
		mc.Window = *c.Model.Window
	}
	return mc
}

// optimConfig merges the optimizer section with the resolved flags.
func (c Config) optimConfig(name string, lr float64) optim.Config {
	oc := c.Optim
	oc.Name = name
	oc.LR = lr
	return oc
}
