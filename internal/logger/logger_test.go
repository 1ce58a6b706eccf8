package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDevFilterDropsNoise(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "development", DevFilter(DefaultNoise...))

	l.Error().Msg("Warning: Text content did not match. Server: foo")
	assert.Empty(t, buf.String())

	l.Error().Msg("database unreachable")
	assert.Contains(t, buf.String(), "database unreachable")
}

func TestDevFilterKeepsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "development", DevFilter("Hydration failed"))

	l.Info().Msg("Hydration failed but only informational")
	assert.Contains(t, buf.String(), "Hydration failed")
}

func TestProductionLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production")

	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Info().Msg("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestPackageHelpersUseInstalledLogger(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	var buf bytes.Buffer
	Set(New(&buf, "production"))

	Warn("lockout triggered", map[string]any{"identifier": "a@b.com"})
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"identifier":"a@b.com"`)
}
