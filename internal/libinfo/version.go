/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo reports the version of go-flowctl linked into the running binary.
package libinfo

import (
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ModulePath is the import path of the go-flowctl module.
const ModulePath = "github.com/acronis/go-flowctl"

// PrometheusVersionLabel is the const label carrying the module version in every exported metric.
const PrometheusVersionLabel = "go_flowctl_version"

const unknownVersion = "v0.0.0"

var (
	version     string
	versionOnce sync.Once
)

// Version returns the version of the module, "v0.0.0" if it cannot be determined
// (e.g. in tests or when the module is the main one).
func Version() string {
	versionOnce.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok {
			version = moduleVersion(info, ModulePath)
		}
		if version == "" || version == "(devel)" {
			version = unknownVersion
		}
	})
	return version
}

// WithVersionLabel returns a copy of labels extended with the module version label.
func WithVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		res[k] = v
	}
	res[PrometheusVersionLabel] = Version()
	return res
}

// moduleVersion looks for modPath (or modPath/vN) among the main module and the dependencies.
func moduleVersion(info *debug.BuildInfo, modPath string) string {
	if info == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modPath) + `(/v[0-9]+)?$`)
	if re.MatchString(info.Main.Path) {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
