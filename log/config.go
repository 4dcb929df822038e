/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"strings"

	"github.com/acronis/go-flowctl/config"
)

// Level is a logging level.
type Level string

// Logging levels.
// LevelSuccess is a reporting level (see Report); it is written at "info" severity.
const (
	LevelError   Level = "error"
	LevelWarn    Level = "warn"
	LevelInfo    Level = "info"
	LevelDebug   Level = "debug"
	LevelSuccess Level = "success"
)

// Format is an encoding of log entries.
type Format string

// Logging formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output is a destination of log entries.
type Output string

// Logging outputs.
const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

// Rotation limits of file output.
const (
	DefaultFileRotationMaxSizeBytes = 250 << 20
	MinFileRotationMaxSizeBytes     = 1 << 20
	DefaultFileRotationMaxBackups   = 10
	MinFileRotationMaxBackups       = 1
)

const cfgDefaultKeyPrefix = "log"

const (
	cfgKeyLevel                  = "level"
	cfgKeyFormat                 = "format"
	cfgKeyOutput                 = "output"
	cfgKeyNoColor                = "nocolor"
	cfgKeyAddCaller              = "addCaller"
	cfgKeyFilePath               = "file.path"
	cfgKeyFileRotationCompress   = "file.rotation.compress"
	cfgKeyFileRotationMaxSize    = "file.rotation.maxSize"
	cfgKeyFileRotationMaxBackups = "file.rotation.maxBackups"
	cfgKeyMaskingEnabled         = "masking.enabled"
	cfgKeyMaskingUseDefaultRules = "masking.useDefaultRules"
	cfgKeyMaskingRules           = "masking.rules"
)

// Config is the "log" configuration section.
type Config struct {
	Level     Level            `mapstructure:"level" yaml:"level" json:"level"`
	Format    Format           `mapstructure:"format" yaml:"format" json:"format"`
	Output    Output           `mapstructure:"output" yaml:"output" json:"output"`
	NoColor   bool             `mapstructure:"nocolor" yaml:"nocolor" json:"nocolor"`
	AddCaller bool             `mapstructure:"addCaller" yaml:"addCaller" json:"addCaller"`
	File      FileOutputConfig `mapstructure:"file" yaml:"file" json:"file"`
	Masking   MaskingConfig    `mapstructure:"masking" yaml:"masking" json:"masking"`

	keyPrefix string
}

// FileOutputConfig configures the "file" output.
type FileOutputConfig struct {
	Path     string             `mapstructure:"path" yaml:"path" json:"path"`
	Rotation FileRotationConfig `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
}

// FileRotationConfig configures rotation of the log file.
type FileRotationConfig struct {
	Compress   bool            `mapstructure:"compress" yaml:"compress" json:"compress"`
	MaxSize    config.ByteSize `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`
	MaxBackups int             `mapstructure:"maxBackups" yaml:"maxBackups" json:"maxBackups"`
}

// MaskingConfig configures hiding of secrets in log entries.
type MaskingConfig struct {
	Enabled         bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	UseDefaultRules bool                `mapstructure:"useDefaultRules" yaml:"useDefaultRules" json:"useDefaultRules"`
	Rules           []MaskingRuleConfig `mapstructure:"rules" yaml:"rules" json:"rules"`
}

// MaskingRuleConfig describes a single secret: its name, the notations it is written in and custom masks.
type MaskingRuleConfig struct {
	Field   string            `mapstructure:"field" yaml:"field" json:"field"`
	Formats []FieldMaskFormat `mapstructure:"formats" yaml:"formats" json:"formats"`
	Masks   []MaskConfig      `mapstructure:"masks" yaml:"masks" json:"masks"`
}

// MaskConfig is a regular expression and its replacement (may refer to groups as ${1}).
type MaskConfig struct {
	RegExp string `mapstructure:"regexp" yaml:"regexp" json:"regexp"`
	Mask   string `mapstructure:"mask" yaml:"mask" json:"mask"`
}

// FieldMaskFormat is a notation in which a secret may be written.
type FieldMaskFormat string

// Field mask formats.
const (
	FieldMaskFormatHeader     FieldMaskFormat = "header"     // Name: value
	FieldMaskFormatJSON       FieldMaskFormat = "json"       // "name": "value"
	FieldMaskFormatURLEncoded FieldMaskFormat = "urlencoded" // name=value, also env assignments
	FieldMaskFormatCLIFlag    FieldMaskFormat = "cli_flag"   // --name value
)

// AllRules returns the rules in effect: the default ones (if enabled) followed by the configured ones.
func (mc MaskingConfig) AllRules() []MaskingRuleConfig {
	if !mc.UseDefaultRules {
		return mc.Rules
	}
	return append(append([]MaskingRuleConfig{}, DefaultMasks...), mc.Rules...)
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates an empty Config that is loaded under keyPrefix ("log" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig returns the configuration used when nothing is configured: info level JSON to stdout.
func NewDefaultConfig() *Config {
	cfg := &Config{Level: LevelInfo, Format: FormatJSON, Output: OutputStdout}
	cfg.File.Rotation.MaxSize = DefaultFileRotationMaxSizeBytes
	cfg.File.Rotation.MaxBackups = DefaultFileRotationMaxBackups
	cfg.Masking.UseDefaultRules = true
	return cfg
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	def := NewDefaultConfig()
	dp.SetDefault(cfgKeyLevel, string(def.Level))
	dp.SetDefault(cfgKeyFormat, string(def.Format))
	dp.SetDefault(cfgKeyOutput, string(def.Output))
	dp.SetDefault(cfgKeyFileRotationMaxSize, def.File.Rotation.MaxSize.String())
	dp.SetDefault(cfgKeyFileRotationMaxBackups, def.File.Rotation.MaxBackups)
	dp.SetDefault(cfgKeyMaskingUseDefaultRules, def.Masking.UseDefaultRules)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	level, err := getLowerFromSet(dp, cfgKeyLevel, LevelError, LevelWarn, LevelInfo, LevelDebug)
	if err != nil {
		return err
	}
	format, err := getLowerFromSet(dp, cfgKeyFormat, FormatJSON, FormatText)
	if err != nil {
		return err
	}
	output, err := getLowerFromSet(dp, cfgKeyOutput, OutputStdout, OutputStderr, OutputFile)
	if err != nil {
		return err
	}
	c.Level, c.Format, c.Output = Level(level), Format(format), Output(output)

	if c.NoColor, err = dp.GetBool(cfgKeyNoColor); err != nil {
		return err
	}
	if c.AddCaller, err = dp.GetBool(cfgKeyAddCaller); err != nil {
		return err
	}
	if err = c.File.set(dp, c.Output == OutputFile); err != nil {
		return err
	}
	return c.Masking.set(dp)
}

func (mc *MaskingConfig) set(dp config.DataProvider) error {
	var err error
	if mc.Enabled, err = dp.GetBool(cfgKeyMaskingEnabled); err != nil {
		return err
	}
	if mc.UseDefaultRules, err = dp.GetBool(cfgKeyMaskingUseDefaultRules); err != nil {
		return err
	}
	mc.Rules = nil
	if err = dp.UnmarshalKey(cfgKeyMaskingRules, &mc.Rules); err != nil {
		return err
	}
	if _, err = NewMasker(mc.Rules); err != nil {
		return dp.WrapKeyErr(cfgKeyMaskingRules, err)
	}
	return nil
}

func (fc *FileOutputConfig) set(dp config.DataProvider, required bool) error {
	var err error
	if fc.Path, err = dp.GetString(cfgKeyFilePath); err != nil {
		return err
	}
	if required && fc.Path == "" {
		return dp.WrapKeyErr(cfgKeyFilePath, fmt.Errorf("cannot be empty when %q output is used", OutputFile))
	}
	if fc.Rotation.Compress, err = dp.GetBool(cfgKeyFileRotationCompress); err != nil {
		return err
	}

	maxSize, err := dp.GetSizeInBytes(cfgKeyFileRotationMaxSize)
	if err != nil {
		return err
	}
	if maxSize < MinFileRotationMaxSizeBytes {
		return dp.WrapKeyErr(cfgKeyFileRotationMaxSize,
			fmt.Errorf("should be >= %s", config.ByteSize(MinFileRotationMaxSizeBytes)))
	}
	fc.Rotation.MaxSize = config.ByteSize(maxSize)

	if fc.Rotation.MaxBackups, err = dp.GetInt(cfgKeyFileRotationMaxBackups); err != nil {
		return err
	}
	if fc.Rotation.MaxBackups < MinFileRotationMaxBackups {
		return dp.WrapKeyErr(cfgKeyFileRotationMaxBackups, fmt.Errorf("should be >= %d", MinFileRotationMaxBackups))
	}
	return nil
}

func getLowerFromSet[T ~string](dp config.DataProvider, key string, values ...T) (string, error) {
	set := make([]string, 0, len(values))
	for _, v := range values {
		set = append(set, string(v))
	}
	s, err := dp.GetStringFromSet(key, set, true)
	return strings.ToLower(s), err
}
