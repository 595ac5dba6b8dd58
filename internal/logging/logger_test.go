package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"json debug", "debug", "json", logrus.DebugLevel, true},
		{"text warn", "warn", "TEXT", logrus.WarnLevel, false},
		{"unknown level", "chatty", "", logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithOutput(tt.level, tt.format, &buf)

			assert.Equal(t, tt.wantLevel, logger.GetLevel())
			logger.WithField("format", "soap").Warn("classified")

			if tt.wantJSON {
				var entry map[string]interface{}
				require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
				assert.Equal(t, "soap", entry["format"])
				assert.Equal(t, "classified", entry["msg"])
			} else {
				assert.Contains(t, buf.String(), "format=soap")
			}
		})
	}
}
