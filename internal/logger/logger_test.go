package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("party", "PL").Msg("ranking computed")

	assert.Contains(t, buf.String(), `"party":"PL"`)
	assert.Contains(t, buf.String(), `"message":"ranking computed"`)
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Warn().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}
