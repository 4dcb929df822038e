/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testLimitsConfig struct {
	Capacity int
	Timeout  time.Duration
}

func (c *testLimitsConfig) KeyPrefix() string {
	return "limits"
}

func (c *testLimitsConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("capacity", 4)
}

func (c *testLimitsConfig) Set(dp DataProvider) error {
	var err error
	if c.Capacity, err = dp.GetInt("capacity"); err != nil {
		return err
	}
	c.Timeout, err = dp.GetDuration("timeout")
	return err
}

type testNameConfig struct {
	Name string
}

func (c *testNameConfig) SetProviderDefaults(_ DataProvider) {}

func (c *testNameConfig) Set(dp DataProvider) error {
	var err error
	c.Name, err = dp.GetString("name")
	return err
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("load config, use defaults", func(t *testing.T) {
		limitsCfg := &testLimitsConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, limitsCfg)
		require.NoError(t, err)
		require.Equal(t, 4, limitsCfg.Capacity)
		require.Equal(t, time.Duration(0), limitsCfg.Timeout)
	})

	t.Run("load several configs", func(t *testing.T) {
		limitsCfg := &testLimitsConfig{}
		nameCfg := &testNameConfig{}
		yamlData := `
name: importer
limits:
  capacity: 16
  timeout: 250ms
`
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(yamlData), DataTypeYAML, limitsCfg, nameCfg)
		require.NoError(t, err)
		require.Equal(t, 16, limitsCfg.Capacity)
		require.Equal(t, 250*time.Millisecond, limitsCfg.Timeout)
		require.Equal(t, "importer", nameCfg.Name)
	})

	t.Run("invalid value", func(t *testing.T) {
		limitsCfg := &testLimitsConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"limits":{"capacity":"many"}}`), DataTypeJSON, limitsCfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "limits.capacity")
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  capacity: 2\n"), 0o600))

	limitsCfg := &testLimitsConfig{}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(path, DataTypeYAML, limitsCfg))
	require.Equal(t, 2, limitsCfg.Capacity)
}

func TestLoader_LoadDefaults_EnvVars(t *testing.T) {
	t.Setenv("FLOWTEST_LIMITS_CAPACITY", "9")
	t.Setenv("FLOWTEST_LIMITS_TIMEOUT", "3s")

	limitsCfg := &testLimitsConfig{}
	require.NoError(t, NewDefaultLoader("flowtest").LoadDefaults(limitsCfg))
	require.Equal(t, 9, limitsCfg.Capacity)
	require.Equal(t, 3*time.Second, limitsCfg.Timeout)
}
