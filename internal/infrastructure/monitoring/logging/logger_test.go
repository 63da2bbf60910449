package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerEmitsFields(t *testing.T) {
	core, observed := observer.New(parseLevel("debug"))
	log := NewLoggerFromCore(core)

	log.Info("template scored",
		String("template_id", "tmpl-1"),
		Float64("score", 0.72),
		Int("keywords", 4),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "template scored", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "tmpl-1", fields["template_id"])
	assert.Equal(t, 0.72, fields["score"])
}

func TestWithAttachesPersistentFields(t *testing.T) {
	core, observed := observer.New(parseLevel("info"))
	log := NewLoggerFromCore(core).With(String("owner_id", "u-9"))

	log.Warn("generation fallback used")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u-9", entries[0].ContextMap()["owner_id"])
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("not-a-level"))
}

func TestNopLoggerIsSilentAndChainable(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.With(String("k", "v")).Named("sub").Error("ignored", Err(nil))
	})
}
