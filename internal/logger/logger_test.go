package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		want    zapcore.Level
		wantErr bool
	}{
		{name: "console debug", level: "debug", want: zapcore.DebugLevel},
		{name: "json info", level: "info", json: true, want: zapcore.InfoLevel},
		{name: "upper case warn", level: "WARN", want: zapcore.WarnLevel},
		{name: "unknown level", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.json)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.want))
			assert.False(t, log.Core().Enabled(tt.want-1))
		})
	}
}
