package tracebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelRoundtrip(t *testing.T) {
	tests := []struct {
		level Level
		str   string
	}{
		{LevelTrace, "TRACE"},
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.level.String())

			got, err := ParseLevel(tt.str)
			assert.Nil(t, err)
			assert.Equal(t, tt.level, got)
		})
	}
}

func TestParseLevelCaseInsensitive(t *testing.T) {
	got, err := ParseLevel("warn")
	assert.Nil(t, err)
	assert.Equal(t, LevelWarn, got)

	got, err = ParseLevel("Debug")
	assert.Nil(t, err)
	assert.Equal(t, LevelDebug, got)
}

func TestParseLevelUnknown(t *testing.T) {
	_, err := ParseLevel("LOUD")
	assert.NotNil(t, err)
}

func TestDefaultLevelMapper(t *testing.T) {
	tests := []struct {
		level Level
		want  Action
	}{
		{LevelError, ActionException},
		{LevelWarn, ActionBreadcrumb},
		{LevelInfo, ActionBreadcrumb},
		{LevelDebug, ActionEvent},
		{LevelTrace, ActionIgnore},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultLevelMapper(tt.level))
		})
	}
}
