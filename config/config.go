/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the flow-control primitives (semaphore capacity,
// retry budget, logging) from YAML/JSON files, readers and environment variables.
//
// Every configurable component exposes a Config implementation. Loader first lets each of them
// register its defaults and then lets each of them read and validate its values.
package config

// Config is implemented by every section that Loader can fill.
type Config interface {
	// SetProviderDefaults registers default values of the section.
	SetProviderDefaults(dp DataProvider)

	// Set reads and validates the values of the section.
	Set(dp DataProvider) error
}

// KeyPrefixProvider may be implemented by Config to have its keys resolved under a prefix
// (e.g. "retry" turns "timeout" into "retry.timeout").
type KeyPrefixProvider interface {
	KeyPrefix() string
}
