package logging

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(log.InfoLevel, "text", &buf)

	l.WithField("thread", 3).Info("dispatch")

	out := buf.String()
	assert.Contains(t, out, "msg=dispatch")
	assert.Contains(t, out, "thread=3")
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(log.InfoLevel, "json", &buf)

	l.WithField("tier", "L1").Info("enqueue")

	out := buf.String()
	assert.Contains(t, out, `"msg":"enqueue"`)
	assert.Contains(t, out, `"tier":"L1"`)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(log.WarnLevel, "text", &buf)

	l.Info("should not appear")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"unknown", log.InfoLevel},
		{"", log.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}
