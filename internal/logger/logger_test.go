package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output", func(t *testing.T) {
		l, err := New(Config{Level: "info", Console: true, Pretty: true})
		require.NoError(t, err)
		defer l.Close()
		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "recipe.log")

		l, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		c := l.Component("stream")
		c.Debug().Uint64("session", 3).Msg("opened")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"component":"stream"`)
		assert.Contains(t, string(data), `"session":3`)
		assert.Contains(t, string(data), `"message":"opened"`)
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		l, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("sets global logger", func(t *testing.T) {
		l, err := New(Config{Level: "warn"})
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())
		assert.NoError(t, l.Close())
	})
}

func TestNewFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := New(Config{File: filepath.Join(blocker, "nested", "x.log")})
	assert.Error(t, err)
}
