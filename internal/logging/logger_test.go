package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_JSON(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf}))

	WithTable("orders").Debug("select", "where", "orders.id=1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "select", rec["msg"])
	assert.Equal(t, "orders", rec["table"])
	assert.Equal(t, "orders.id=1", rec["where"])
}

func TestInit_LevelFilters(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: LevelWarn, Output: &buf}))

	GetLogger().Info("hidden")
	WithError(errors.New("boom")).Warn("shown")
	WithComponent("entity").Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "component=entity")
}

func TestInit_BadConfig(t *testing.T) {
	t.Cleanup(Reset)
	assert.Error(t, Init(Config{Format: "xml"}))
	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestGetLogger_Default(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}
