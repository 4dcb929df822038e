/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-flowctl/config"
)

const cfgDefaultKeyPrefix = "retry"

const (
	cfgKeyTimeout            = "timeout"
	cfgKeyRetries            = "retries"
	cfgKeyBackoffStrategy    = "backoff.strategy"
	cfgKeyBackoffInterval    = "backoff.interval"
	cfgKeyBackoffMaxInterval = "backoff.maxInterval"
)

// BackoffStrategy defines possible delay strategies between attempts.
type BackoffStrategy string

// Backoff strategies.
const (
	BackoffStrategyNone        BackoffStrategy = "none"
	BackoffStrategyConstant    BackoffStrategy = "constant"
	BackoffStrategyExponential BackoffStrategy = "exponential"
)

var availableBackoffStrategies = []string{
	string(BackoffStrategyNone), string(BackoffStrategyConstant), string(BackoffStrategyExponential),
}

// Config represents a set of configuration parameters for retry chains.
type Config struct {
	Timeout config.TimeDuration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Retries int                 `mapstructure:"retries" yaml:"retries" json:"retries"`
	Backoff BackoffConfig       `mapstructure:"backoff" yaml:"backoff" json:"backoff"`

	keyPrefix string
}

// BackoffConfig configures delays between attempts.
type BackoffConfig struct {
	Strategy    BackoffStrategy     `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Interval    config.TimeDuration `mapstructure:"interval" yaml:"interval" json:"interval"`
	MaxInterval config.TimeDuration `mapstructure:"maxInterval" yaml:"maxInterval" json:"maxInterval"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("retry" if empty).
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
	dp.SetDefault(cfgKeyBackoffStrategy, string(BackoffStrategyNone))
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	timeoutVal, err := dp.GetDuration(cfgKeyTimeout)
	if err != nil {
		return err
	}
	if timeoutVal < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("should be >= 0"))
	}
	c.Timeout = config.TimeDuration(timeoutVal)

	if c.Retries, err = dp.GetInt(cfgKeyRetries); err != nil {
		return err
	}
	if c.Retries < 0 {
		return dp.WrapKeyErr(cfgKeyRetries, fmt.Errorf("should be >= 0"))
	}

	strategy, err := dp.GetStringFromSet(cfgKeyBackoffStrategy, availableBackoffStrategies, true)
	if err != nil {
		return err
	}
	c.Backoff.Strategy = BackoffStrategy(strings.ToLower(strategy))

	interval, err := dp.GetDuration(cfgKeyBackoffInterval)
	if err != nil {
		return err
	}
	if c.Backoff.Strategy != BackoffStrategyNone && interval <= 0 {
		return dp.WrapKeyErr(cfgKeyBackoffInterval,
			fmt.Errorf("should be > 0 when %q strategy is used", c.Backoff.Strategy))
	}
	c.Backoff.Interval = config.TimeDuration(interval)

	maxInterval, err := dp.GetDuration(cfgKeyBackoffMaxInterval)
	if err != nil {
		return err
	}
	c.Backoff.MaxInterval = config.TimeDuration(maxInterval)
	return nil
}

// Policy returns the delay policy described by the configuration (nil for "none").
func (c *Config) Policy() Policy {
	switch c.Backoff.Strategy {
	case BackoffStrategyConstant:
		return NewConstantBackoffPolicy(time.Duration(c.Backoff.Interval))
	case BackoffStrategyExponential:
		return NewExponentialBackoffPolicy(time.Duration(c.Backoff.Interval), time.Duration(c.Backoff.MaxInterval))
	}
	return nil
}

// Options returns Options with the configured timeout, retries and delay policy.
func (c *Config) Options() Options {
	return Options{
		Timeout: time.Duration(c.Timeout),
		Retries: c.Retries,
		Policy:  c.Policy(),
	}
}
