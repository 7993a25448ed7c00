package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "")
	d, err := Duration("STORE_TIMEOUT", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	t.Setenv("STORE_TIMEOUT", "30")
	d, err = Duration("STORE_TIMEOUT", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	t.Setenv("STORE_TIMEOUT", "24h")
	d, err = Duration("STORE_TIMEOUT", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	t.Setenv("STORE_TIMEOUT", "soon")
	_, err = Duration("STORE_TIMEOUT", 5*time.Second)
	assert.Error(t, err)
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("OUTBOX_BATCH_SIZE", "abc")
	_, err := Int("OUTBOX_BATCH_SIZE", 50)
	assert.Error(t, err)

	t.Setenv("OUTBOX_BATCH_SIZE", "10")
	n, err := Int("OUTBOX_BATCH_SIZE", 50)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	t.Setenv("OTEL_ENABLED", "off")
	assert.False(t, Bool("OTEL_ENABLED", true))
	t.Setenv("OTEL_ENABLED", "maybe")
	assert.True(t, Bool("OTEL_ENABLED", true))
}

func TestPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	_, err := Port("PORT", "8083")
	assert.Error(t, err)
}
