package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NotNil(t *testing.T) {
	log := NewLogger("test")
	require.NotNil(t, log)
}

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	assert.NotPanics(t, func() {
		log.Info().Msg("should not be written anywhere")
	})
}

func TestFromContext_RoundTrip(t *testing.T) {
	log := Nop().WithCollection("documents")
	ctx := log.WithContext(context.Background())

	got := FromContext(ctx)
	require.NotNil(t, got)
}

func TestFromContext_NoLoggerAttached(t *testing.T) {
	got := FromContext(context.Background())
	require.NotNil(t, got)
	assert.NotPanics(t, func() { got.Debug().Msg("fallback logger") })
}
