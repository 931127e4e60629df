package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerHTTPAddr)
	assert.Equal(t, "127.0.0.1:50051", c.AdminGRPCAddr)
	assert.Equal(t, int64(1<<20), c.ChunkSize)
	assert.Equal(t, "gophdrop.db", c.SessionDB)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("CONFIG", "")

	cfg := LoadConfig()
	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerHTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
