/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package cmdrunner runs external commands through retry chains,
// bounding how many of them run at once with a semaphore.
package cmdrunner
