/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "fmt"

// Config represents a set of configuration parameters for LRUCache.
// Configuration can be loaded in different formats (YAML, JSON) using viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// MaxEntries is the maximum number of entries the cache can hold.
	// There is no safe default, so the value must be provided explicitly and be positive.
	MaxEntries int `mapstructure:"maxEntries" yaml:"maxEntries" json:"maxEntries"`
}

// Validate checks that configuration parameters are filled correctly.
func (c *Config) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("maxEntries: %w", ErrInvalidMaxEntries)
	}
	return nil
}
