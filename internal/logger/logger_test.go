package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, Setup(cfg))
}

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "invoicer.log")
	cfg := LogConfig{Level: "debug", Format: "json", Output: path}
	require.NoError(t, Setup(cfg))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.FileExists(t, path)
}

func TestRunAndFileFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	log := WithFile(WithRunID("run-1"), "order-1001.json")
	log.Info().Msg("processed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "order-1001.json", entry["file"])
	assert.Equal(t, "processed", entry["message"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	log := WithComponent("batch")
	log.Warn().Msg("slow")

	assert.Contains(t, buf.String(), `"component":"batch"`)
}
