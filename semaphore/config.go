/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package semaphore

import (
	"fmt"

	"github.com/acronis/go-flowctl/config"
)

const cfgDefaultKeyPrefix = "semaphore"

const cfgKeyCapacity = "capacity"

// DefaultCapacity is the capacity used when it is not configured.
const DefaultCapacity = 4

// Config represents a set of configuration parameters for the semaphore.
type Config struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity" json:"capacity"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("semaphore" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCapacity, DefaultCapacity)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Capacity, err = dp.GetInt(cfgKeyCapacity); err != nil {
		return err
	}
	if c.Capacity < 0 {
		return dp.WrapKeyErr(cfgKeyCapacity, fmt.Errorf("should be >= 0"))
	}
	return nil
}

// NewFromConfig creates a new Semaphore using the configured capacity.
func NewFromConfig(cfg *Config, opts Options) (*Semaphore, error) {
	return NewWithOpts(cfg.Capacity, opts)
}
