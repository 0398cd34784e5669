// Package config loads the YAML configuration shared by the server and the
// training command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"flightdelay/logging"
	"flightdelay/ml"
	"gopkg.in/yaml.v2"
)

// Config is the service and training configuration read from YAML.
type Config struct {
	Http struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxBodyBytes int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log   logging.Config `yaml:"log"`
	Model struct {
		Checkpoint string `yaml:"checkpoint"`
		CacheSize  int    `yaml:"cache_size"`
	} `yaml:"model"`
	Training struct {
		TestRatio        float64 `yaml:"test_ratio"`
		Seed             int64   `yaml:"seed"`
		ThresholdMinutes int     `yaml:"threshold_minutes"`
		Encoding         string  `yaml:"encoding"`
	} `yaml:"training"`
	Registry struct {
		Path string `yaml:"path"`
	} `yaml:"registry"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.ReadTimeout = 30 * time.Second
	c.Http.WriteTimeout = 30 * time.Second
	c.Http.MaxBodyBytes = 1 << 20
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Model.Checkpoint = ml.DefaultCheckpoint
	c.Model.CacheSize = 1 << ml.NumFeatures
	c.Training.TestRatio = 0.33
	c.Training.Seed = 42
	c.Training.ThresholdMinutes = int(ml.DefaultDelayThreshold / time.Minute)
	c.Training.Encoding = "utf-8"
	return &c
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Model.Checkpoint == "" {
		return errors.New("model.checkpoint is required")
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio %v outside (0, 1)", c.Training.TestRatio)
	}
	if c.Training.ThresholdMinutes < 0 {
		return errors.New("training.threshold_minutes must not be negative")
	}
	return nil
}

// DelayThreshold is the training delay threshold as a duration.
func (c *Config) DelayThreshold() time.Duration {
	return time.Duration(c.Training.ThresholdMinutes) * time.Minute
}
