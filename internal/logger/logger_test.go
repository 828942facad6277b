package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.Info().Str("scope", "core").Msg("reconciled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reconciled", entry["message"])
	assert.Equal(t, "handbook", entry["service"])
	assert.Equal(t, "core", entry["scope"])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, "chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, " WARN ", "Pretty")

	log.Warn().Msg("prune skipped")

	out := buf.String()
	assert.Contains(t, out, "prune skipped")
	assert.False(t, strings.HasPrefix(out, "{"), "console output expected, got %q", out)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
