package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestNewHonoursLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, New("prod", "error").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("dev", "").GetLevel())
}
