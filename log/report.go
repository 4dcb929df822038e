/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

// Field keys attached by Report.
const (
	FieldKeyProcess = "process"
	FieldKeyOutcome = "outcome"
)

// Report logs msg at the given level tagging the entry with the name of the process it is about.
// An empty processName adds no tag.
// LevelSuccess has no severity of its own: the entry is written at "info" level with outcome=success.
// A nil logger makes Report a no-op.
func Report(logger FieldLogger, level Level, msg string, processName string, fs ...Field) {
	if logger == nil {
		return
	}
	fs = fs[:len(fs):len(fs)] // appends below must not overwrite the caller's array
	if processName != "" {
		fs = append(fs, String(FieldKeyProcess, processName))
	}
	if level == LevelSuccess {
		fs = append(fs, String(FieldKeyOutcome, string(LevelSuccess)))
	}
	logger.Log(level, msg, fs...)
}
