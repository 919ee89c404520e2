package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Seed    int64         `yaml:"seed"`
	Game    GameConfig    `yaml:"game"`
	Model   ModelConfig   `yaml:"model"`
	Train   TrainConfig   `yaml:"train"`
	Logging LoggingConfig `yaml:"logging"`
}

// GameConfig sizes the grid in pixels.
type GameConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Block  int `yaml:"block"`
}

// ModelConfig defines the network architecture and where weights live.
type ModelConfig struct {
	Hidden int    `yaml:"hidden"`
	Path   string `yaml:"path"`
}

// TrainConfig defines learning hyperparameters.
type TrainConfig struct {
	LearningRate float64 `yaml:"lr"`
	Gamma        float64 `yaml:"gamma"`
	BatchSize    int     `yaml:"batch_size"`
	Memory       int     `yaml:"memory"`
}

// LoggingConfig defines where the per-episode metrics go.
type LoggingConfig struct {
	CSVPath    string `yaml:"csv_path"`
	JSONPath   string `yaml:"json_path"`
	PrintEvery int    `yaml:"print_every"`
}

// Load reads a YAML config file and fills in defaults for anything omitted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Game.Width == 0 {
		cfg.Game.Width = 640
	}
	if cfg.Game.Height == 0 {
		cfg.Game.Height = 480
	}
	if cfg.Game.Block == 0 {
		cfg.Game.Block = 20
	}
	if cfg.Model.Hidden == 0 {
		cfg.Model.Hidden = 256
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "models/weights.gob"
	}
	if cfg.Train.LearningRate == 0 {
		cfg.Train.LearningRate = 0.001
	}
	if cfg.Train.Gamma == 0 {
		cfg.Train.Gamma = 0.9
	}
	if cfg.Train.BatchSize == 0 {
		cfg.Train.BatchSize = 1000
	}
	if cfg.Train.Memory == 0 {
		cfg.Train.Memory = 100_000
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/train.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/train.jsonl"
	}
	if cfg.Logging.PrintEvery == 0 {
		cfg.Logging.PrintEvery = 1
	}
}

func validate(cfg *Config) error {
	if cfg.Game.Block <= 0 {
		return fmt.Errorf("block size must be positive, got %d", cfg.Game.Block)
	}
	if cfg.Game.Width%cfg.Game.Block != 0 || cfg.Game.Height%cfg.Game.Block != 0 {
		return fmt.Errorf("grid %dx%d is not a multiple of block size %d",
			cfg.Game.Width, cfg.Game.Height, cfg.Game.Block)
	}
	if cfg.Game.Width < 4*cfg.Game.Block {
		return fmt.Errorf("grid width %d cannot fit the starting snake", cfg.Game.Width)
	}
	if cfg.Train.Gamma < 0 || cfg.Train.Gamma >= 1 {
		return fmt.Errorf("gamma must be in [0,1), got %v", cfg.Train.Gamma)
	}
	return nil
}
