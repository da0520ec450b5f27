/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/acronis/go-lrucache/lrucache"
)

const envPrefix = "cachesim"

// SimConfig describes the simulated workload.
type SimConfig struct {
	// Workers is the number of goroutines hammering the shared cache.
	Workers int `mapstructure:"workers"`

	// OpsPerWorker is the number of cache operations each worker performs.
	OpsPerWorker int `mapstructure:"opsPerWorker"`

	// KeySpace is the number of distinct keys; keeping it small relative to
	// Workers*OpsPerWorker creates contention and hit patterns.
	KeySpace int `mapstructure:"keySpace"`

	// GetPercent and AddPercent define the operation mix; the remainder is removals.
	GetPercent int `mapstructure:"getPercent"`
	AddPercent int `mapstructure:"addPercent"`

	// MaxOpDelay is the upper bound of the random pause between operations,
	// used to increase interleaving between workers.
	MaxOpDelay time.Duration `mapstructure:"maxOpDelay"`

	// StoreFailurePercent is the transient failure rate of the simulated backing store.
	StoreFailurePercent int `mapstructure:"storeFailurePercent"`
}

// LogConfig describes where and how the simulation logs.
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig describes the log file rotation parameters for the "file" output.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

// AppConfig is the root configuration of the simulation.
type AppConfig struct {
	Cache lrucache.Config `mapstructure:"cache"`
	Sim   SimConfig       `mapstructure:"sim"`
	Log   LogConfig       `mapstructure:"log"`
}

// Validate checks that configuration parameters are filled correctly.
func (c *AppConfig) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c.Sim.Workers <= 0 {
		return fmt.Errorf("sim.workers must be greater than 0, got %d", c.Sim.Workers)
	}
	if c.Sim.OpsPerWorker <= 0 {
		return fmt.Errorf("sim.opsPerWorker must be greater than 0, got %d", c.Sim.OpsPerWorker)
	}
	if c.Sim.KeySpace <= 0 {
		return fmt.Errorf("sim.keySpace must be greater than 0, got %d", c.Sim.KeySpace)
	}
	if c.Sim.GetPercent < 0 || c.Sim.AddPercent < 0 || c.Sim.GetPercent+c.Sim.AddPercent > 100 {
		return fmt.Errorf("sim.getPercent (%d) and sim.addPercent (%d) must be non-negative and sum to at most 100",
			c.Sim.GetPercent, c.Sim.AddPercent)
	}
	if c.Sim.StoreFailurePercent < 0 || c.Sim.StoreFailurePercent >= 100 {
		return fmt.Errorf("sim.storeFailurePercent must be in [0, 100), got %d", c.Sim.StoreFailurePercent)
	}
	if c.Log.Output == logOutputFile && c.Log.File.Path == "" {
		return fmt.Errorf("log.file.path must be set when log.output is %q", logOutputFile)
	}
	return nil
}

// loadConfig reads the simulation configuration from the optional YAML file
// and the CACHESIM_* environment variables, on top of the defaults matching
// the classic demo workload (5 workers, 1000 operations each, capacity 10).
func loadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetDefault("cache.maxEntries", 10)
	v.SetDefault("sim.workers", 5)
	v.SetDefault("sim.opsPerWorker", 1000)
	v.SetDefault("sim.keySpace", 21)
	v.SetDefault("sim.getPercent", 60)
	v.SetDefault("sim.addPercent", 30)
	v.SetDefault("sim.maxOpDelay", 100*time.Microsecond)
	v.SetDefault("sim.storeFailurePercent", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logFormatText)
	v.SetDefault("log.output", logOutputStdout)
	v.SetDefault("log.file.maxSizeMB", 250)
	v.SetDefault("log.file.maxBackups", 10)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
