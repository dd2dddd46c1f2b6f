package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Module(newLogger(&buf, "debug"), "items")

	l.Debug().Int64("user_id", 7).Msg("item created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "item created", entry["message"])
	require.Equal(t, "items", entry["module"])
	require.Equal(t, serviceName, entry["service"])
	require.EqualValues(t, 7, entry["user_id"])
	require.Contains(t, entry, "time")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")

	l.Info().Msg("hidden")
	require.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "verbose")

	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())

	l.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
