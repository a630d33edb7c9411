package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json handler honours level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "json", "warn")
		log.Info("dropped")
		log.Warn("kept", "rule", "staff.valid_status")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "kept", rec["msg"])
		assert.Equal(t, "staff.valid_status", rec["rule"])
	})

	t.Run("text handler and unknown level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "text", "loud")
		log.Debug("dropped")
		log.Info("kept")
		assert.Contains(t, buf.String(), "msg=kept")
		assert.NotContains(t, buf.String(), "dropped")
	})
}
