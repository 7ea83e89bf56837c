package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUsesPrefix(t *testing.T) {
	t.Setenv("STOREPULSE_LOG_FORMAT", " console ")
	t.Setenv("LOG_LEVEL_ONLY", "debug")

	assert.Equal(t, "console", Get("LOG_FORMAT", "json"))
	assert.Equal(t, "info", Get("LEVEL_ONLY", "info"))
	assert.Equal(t, "json", Get("MISSING", "json"))
}
