package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "debug json", cfg: Config{Level: "debug", Format: FormatJSON}},
		{name: "error console", cfg: Config{Level: "error", Format: FormatConsole}},
		{name: "bad level", cfg: Config{Level: "loud", Format: FormatJSON}, wantErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: FormatJSON}, &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("table", "users").Msg("loaded")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "users", entry["table"])
	assert.Equal(t, "loaded", entry["message"])
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn", NoColor: true}, &buf)

	log.Info().Msg("hidden")
	log.Error().Str("field", "user").Msg("unable to load")

	out := buf.String()
	assert.Contains(t, out, "unable to load")
	assert.Contains(t, out, "field=user")
	assert.NotContains(t, out, "hidden")
}
