package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	l := New(Config{Level: "info", Pretty: false})

	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestNewAllLogLevels(t *testing.T) {
	cases := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"unknown defaults to info", "bogus", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			New(Config{Level: tc.level})
			assert.Equal(t, tc.expected, zerolog.GlobalLevel())
		})
	}
}

func TestNewPrettyOutputStillWritesMessage(t *testing.T) {
	l := New(Config{Level: "info", Pretty: true})

	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Msg("pretty message")

	assert.Contains(t, buf.String(), "pretty message")
}

func TestNewErrorLevelFiltersLower(t *testing.T) {
	l := New(Config{Level: "error"})

	var buf bytes.Buffer
	l = l.Output(&buf)

	l.Info().Msg("should not appear")
	assert.NotContains(t, buf.String(), "should not appear")

	l.Error().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}
