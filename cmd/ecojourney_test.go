package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, slogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, slogLevel("warn"))
	assert.Equal(t, slog.LevelInfo, slogLevel("verbose"))
}

func TestSetupStore(t *testing.T) {
	s, err := setupStore(t.Context(), map[string]string{"store.backend": "memory"})
	assert.NoError(t, err)
	assert.NotNil(t, s)

	_, err = setupStore(t.Context(), map[string]string{"store.backend": "gcs"})
	assert.Error(t, err)

	_, err = setupStore(t.Context(), map[string]string{"store.backend": "s3"})
	assert.Error(t, err)

	_, err = setupStore(t.Context(), map[string]string{"store.backend": "postgres"})
	assert.Error(t, err)
}
