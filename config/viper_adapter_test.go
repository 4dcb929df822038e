/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(`{"strategy":"Constant"}`), DataTypeJSON))

	got, err := va.GetStringFromSet("strategy", []string{"none", "constant"}, true)
	require.NoError(t, err)
	require.Equal(t, "Constant", got)

	_, err = va.GetStringFromSet("strategy", []string{"none", "constant"}, false)
	require.EqualError(t, err, `strategy: unknown value "Constant", should be one of [none constant]`)
}

func TestViperAdapter_GetSizeInBytes(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{name: "integer", value: 1024, want: 1024},
		{name: "human readable", value: "2M", want: 2 * 1024 * 1024},
		{name: "k8s suffix", value: "1Gi", want: 1024 * 1024 * 1024},
		{name: "empty", value: "", want: 0},
		{name: "invalid", value: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			va.Set("size", tt.value)
			got, err := va.GetSizeInBytes("size")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	dp := NewKeyPrefixedDataProvider(va, "retry")
	dp.SetDefault("retries", 3)
	dp.Set("timeout", "1s")

	retries, err := va.GetInt("retry.retries")
	require.NoError(t, err)
	require.Equal(t, 3, retries)
	retries, err = dp.GetInt("retries")
	require.NoError(t, err)
	require.Equal(t, 3, retries)

	timeout, err := dp.GetDuration("timeout")
	require.NoError(t, err)
	require.Equal(t, "1s", timeout.String())

	require.EqualError(t, dp.WrapKeyErr("retries", errors.New("boom")), "retry.retries: boom")
}

func TestViperAdapter_UnmarshalKey(t *testing.T) {
	type rotation struct {
		MaxSize  ByteSize     `mapstructure:"maxSize"`
		MaxAge   TimeDuration `mapstructure:"maxAge"`
		Compress bool         `mapstructure:"compress"`
	}
	yamlData := `
log:
  rotation:
    maxSize: 100M
    maxAge: 24h
    compress: true
`
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(yamlData), DataTypeYAML))

	var got rotation
	require.NoError(t, NewKeyPrefixedDataProvider(va, "log").UnmarshalKey("rotation", &got, WithCustomTypesDecodeHook()))
	require.Equal(t, rotation{MaxSize: 100 * 1024 * 1024, MaxAge: TimeDuration(24 * time.Hour), Compress: true}, got)

	va.Set("log.rotation.maxSize", "plenty")
	err := va.UnmarshalKey("log.rotation", &got, WithCustomTypesDecodeHook())
	require.Error(t, err)
	require.Contains(t, err.Error(), "log.rotation")
}
