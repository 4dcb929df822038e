/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

import (
	"runtime/debug"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestModuleVersion(t *testing.T) {
	tests := []struct {
		name    string
		info    *debug.BuildInfo
		wantVer string
	}{
		{
			name:    "dependency",
			info:    &debug.BuildInfo{Deps: []*debug.Module{{Path: ModulePath, Version: "v1.2.3"}}},
			wantVer: "v1.2.3",
		},
		{
			name:    "dependency, major version suffix",
			info:    &debug.BuildInfo{Deps: []*debug.Module{{Path: ModulePath + "/v2", Version: "v2.0.1"}}},
			wantVer: "v2.0.1",
		},
		{
			name:    "main module",
			info:    &debug.BuildInfo{Main: debug.Module{Path: ModulePath, Version: "v0.4.0"}},
			wantVer: "v0.4.0",
		},
		{
			name:    "similar path is not matched",
			info:    &debug.BuildInfo{Deps: []*debug.Module{{Path: ModulePath + "-extra", Version: "v1.0.0"}}},
			wantVer: "",
		},
		{
			name: "nil build info",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantVer, moduleVersion(tt.info, ModulePath))
		})
	}
}

func TestWithVersionLabel(t *testing.T) {
	labels := prometheus.Labels{"service": "billing"}
	got := WithVersionLabel(labels)
	require.Equal(t, prometheus.Labels{"service": "billing", PrometheusVersionLabel: Version()}, got)
	require.Len(t, labels, 1)
	require.NotEmpty(t, Version())
}
