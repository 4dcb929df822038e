/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command flowctl runs shell commands with retries, per-attempt timeouts and bounded parallelism.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
