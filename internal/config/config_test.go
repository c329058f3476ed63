package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	v := New()
	SetServerDefaults(v)
	v.Set("jwt.secret", "s3cret")

	cfg, err := LoadServer(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.NatsURL)
}

func TestLoadServer_MissingSecret(t *testing.T) {
	v := New()
	SetServerDefaults(v)

	_, err := LoadServer(v)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadServer_EnvOverrides(t *testing.T) {
	t.Setenv("NOTESYNC_JWT_SECRET", "from-env")
	t.Setenv("NOTESYNC_LOG_LEVEL", "debug")
	t.Setenv("NOTESYNC_JWT_ACCESS_TTL", "5m")

	v := New()
	SetServerDefaults(v)

	cfg, err := LoadServer(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
}

func TestRead_FileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := "addr: \":9000\"\njwt:\n  secret: from-file\nnats_url: nats://127.0.0.1:4222\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	require.NoError(t, flags.Parse([]string{"--database=/tmp/flag.db"}))

	v := New()
	SetServerDefaults(v)
	require.NoError(t, Read(v, path, flags))

	cfg, err := LoadServer(v)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NatsURL)
	assert.Equal(t, "/tmp/flag.db", cfg.DatabasePath)
}

func TestRead_MissingFile(t *testing.T) {
	v := New()
	err := Read(v, filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	v := New()
	SetClientDefaults(v)

	cfg, err := LoadClient(v)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, "warn", cfg.Log.Level)

	v.Set("batch_size", 0)
	_, err = LoadClient(v)
	assert.Error(t, err)
}
