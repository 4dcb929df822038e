/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-flowctl/log"
)

func TestRecorder(t *testing.T) {
	logRecorder := NewRecorder()
	logRecorder.Warn("message1", log.Int("num", 10), log.String("str", "abc"))
	logRecorder.With(log.String("process", "sync")).Info("message2")
	require.Len(t, logRecorder.Entries(), 2)

	_, found := logRecorder.FindEntry("unknown")
	require.False(t, found)

	logEntry, found := logRecorder.FindEntry("message1")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, logEntry.Level)
	logFieldNum, found := logEntry.FindField("num")
	require.True(t, found)
	require.Equal(t, 10, int(logFieldNum.Int))
	require.Equal(t, "abc", logEntry.StringField("str"))

	logEntry, found = logRecorder.FindEntry("message2")
	require.True(t, found)
	require.Equal(t, "sync", logEntry.StringField("process"))

	logRecorder.Reset()
	require.Empty(t, logRecorder.Entries())
}

func TestRecorder_WithLevel(t *testing.T) {
	logRecorder := NewRecorder()
	logger := logRecorder.WithLevel(log.LevelWarn)
	logger.Info("skipped")
	logger.Error("kept")
	require.Len(t, logRecorder.FindAllEntries("kept"), 1)
	require.Empty(t, logRecorder.FindAllEntries("skipped"))
}

func TestLogger(t *testing.T) {
	var b bytes.Buffer
	logger := NewLogger(&b)
	logger.Error("attempt 3 failed")

	var j map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Bytes(), &j))
	require.Equal(t, "error", j["level"])
	require.Equal(t, "attempt 3 failed", j["msg"])
}
