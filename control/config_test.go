// control/config_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
ring:
  entries: 256
log:
  level: debug
  format: json
echo:
  addr: 0.0.0.0:7000
`))
	require.NoError(t, err)
	assert.EqualValues(t, 256, cfg.Ring.Entries)
	assert.Equal(t, 128, cfg.Reactor.CQEBatch)
	assert.Equal(t, 1, cfg.Reactor.SentinelRetries)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "0.0.0.0:7000", cfg.Echo.Addr)
	assert.Equal(t, 4096, cfg.Echo.BufferSize)
	assert.Equal(t, -1, cfg.Echo.CPU)

	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestParseConfigRejects(t *testing.T) {
	cases := map[string]string{
		"entries not power of two": "ring: {entries: 100}",
		"zero batch":               "reactor: {cqe_batch: 0}",
		"negative retries":         "reactor: {sentinel_retries: -1}",
		"bad level":                "log: {level: loud}",
		"bad format":               "log: {format: xml}",
		"zero buffer":              "echo: {buffer_size: 0}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := ParseConfig([]byte("ring: [not, a, map]"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reactor:\n  cqe_batch: 32\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Reactor.CQEBatch)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigStoreReload(t *testing.T) {
	cs := NewConfigStore(DefaultConfig())
	var seen []string
	cs.OnReload(func(c Config) { seen = append(seen, c.Log.Level) })

	next := DefaultConfig()
	next.Log.Level = "warn"
	require.NoError(t, cs.SetConfig(next))
	assert.Equal(t, "warn", cs.GetSnapshot().Log.Level)
	assert.Equal(t, []string{"warn"}, seen)

	bad := next
	bad.Ring.Entries = 3
	assert.ErrorIs(t, cs.SetConfig(bad), ErrInvalidConfig)
	assert.EqualValues(t, 1024, cs.GetSnapshot().Ring.Entries)
	assert.Len(t, seen, 1)
}
