package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON("debug", &buf).Component("poller")
	l.Info().Str("job_id", "abc").Msg("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "abc", entry["job_id"])
	assert.Equal(t, "tick", entry["message"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON("error", &buf)
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestOrSilent(t *testing.T) {
	assert.NotNil(t, OrSilent(nil))
	l := NewSilent()
	assert.Same(t, l, OrSilent(l))
}
