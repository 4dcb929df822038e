/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"io"
)

// Loader fills Config sections from a DataProvider.
// All sections register their defaults first, then each one reads its values in the given order.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader returns a Loader over a ViperAdapter that also looks at environment variables
// named after envVarsPrefix.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader returns a Loader over dp.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{DataProvider: dp}
}

// LoadFromFile reads the file at path and fills the sections.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return err
	}
	return l.load(cfg, cfgs)
}

// LoadFromReader reads reader and fills the sections.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.load(cfg, cfgs)
}

// LoadDefaults fills the sections from defaults and whatever the DataProvider already has
// (e.g. environment variables), without reading any file.
func (l *Loader) LoadDefaults(cfg Config, cfgs ...Config) error {
	return l.load(cfg, cfgs)
}

func (l *Loader) load(first Config, rest []Config) error {
	all := append([]Config{first}, rest...)
	providers := make([]DataProvider, len(all))
	for i, cfg := range all {
		providers[i] = l.DataProvider
		if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
			providers[i] = NewKeyPrefixedDataProvider(l.DataProvider, kp.KeyPrefix())
		}
		cfg.SetProviderDefaults(providers[i])
	}
	for i, cfg := range all {
		if err := cfg.Set(providers[i]); err != nil {
			return err
		}
	}
	return nil
}
