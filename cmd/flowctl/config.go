/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"path/filepath"
	"strings"

	"github.com/acronis/go-flowctl/config"
	"github.com/acronis/go-flowctl/log"
	"github.com/acronis/go-flowctl/retry"
	"github.com/acronis/go-flowctl/semaphore"
)

const envVarsPrefix = "FLOWCTL"

type appConfig struct {
	Log       *log.Config
	Retry     *retry.Config
	Semaphore *semaphore.Config
}

func newAppConfig() *appConfig {
	return &appConfig{
		Log:       log.NewConfig(""),
		Retry:     retry.NewConfig(""),
		Semaphore: semaphore.NewConfig(""),
	}
}

// loadAppConfig loads configuration from the file at path (if not empty) and FLOWCTL_* environment variables.
func loadAppConfig(path string) (*appConfig, error) {
	cfg := newAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	// Command lines and their output often carry credentials.
	loader.DataProvider.SetDefault(cfg.Log.KeyPrefix()+".masking.enabled", true)
	if path == "" {
		if err := loader.LoadDefaults(cfg.Log, cfg.Retry, cfg.Semaphore); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := loader.LoadFromFile(path, dataTypeFromPath(path), cfg.Log, cfg.Retry, cfg.Semaphore); err != nil {
		return nil, err
	}
	return cfg, nil
}

func dataTypeFromPath(path string) config.DataType {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.DataTypeJSON
	}
	return config.DataTypeYAML
}
