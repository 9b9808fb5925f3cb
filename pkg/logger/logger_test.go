package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	got := redact([]any{"story_id", "s1", "access_token", "abc", "Email", "x@y.org", "dangling"})
	assert.Equal(t, []any{"story_id", "s1", "access_token", redacted, "Email", redacted, "dangling"}, got)
}

func TestLoggerWritesRedactedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "auth").Info("login", "password", "hunter22", "ngo_id", "n1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "auth", fields["component"])
		assert.Equal(t, redacted, fields["password"])
		assert.Equal(t, "n1", fields["ngo_id"])
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Warn("ignored", "k", 1) })
}
