/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-flowctl/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgData     string
		wantOptions Options
		wantErr     string
	}{
		{
			name:        "defaults",
			cfgData:     `{}`,
			wantOptions: Options{},
		},
		{
			name: "constant backoff",
			cfgData: `
retry:
  timeout: 2s
  retries: 3
  backoff:
    strategy: Constant
    interval: 100ms
`,
			wantOptions: Options{
				Timeout: 2 * time.Second,
				Retries: 3,
				Policy:  NewConstantBackoffPolicy(100 * time.Millisecond),
			},
		},
		{
			name: "exponential backoff",
			cfgData: `
retry:
  retries: 5
  backoff:
    strategy: exponential
    interval: 50ms
    maxInterval: 1s
`,
			wantOptions: Options{
				Retries: 5,
				Policy:  NewExponentialBackoffPolicy(50*time.Millisecond, time.Second),
			},
		},
		{
			name:    "negative retries",
			cfgData: "retry:\n  retries: -1\n",
			wantErr: "retry.retries: should be >= 0",
		},
		{
			name:    "unknown strategy",
			cfgData: "retry:\n  backoff:\n    strategy: fibonacci\n",
			wantErr: `retry.backoff.strategy: unknown value "fibonacci"`,
		},
		{
			name:    "constant backoff without interval",
			cfgData: "retry:\n  backoff:\n    strategy: constant\n",
			wantErr: `retry.backoff.interval: should be > 0 when "constant" strategy is used`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("")
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantOptions, cfg.Options())
		})
	}
}

func TestExponentialBackoffPolicy(t *testing.T) {
	bo := NewExponentialBackoffPolicy(10*time.Millisecond, 40*time.Millisecond).NewBackOff()
	for i := 0; i < 10; i++ {
		delay := bo.NextBackOff()
		require.Greater(t, delay, time.Duration(0), "policy must never stop on its own")
		require.LessOrEqual(t, delay, 60*time.Millisecond) // max interval plus randomization
	}
}
