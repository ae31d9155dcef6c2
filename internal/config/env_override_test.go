package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("unset variables keep file values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Database = "file.db"
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "file.db", cfg.Store.Database)
		assert.Empty(t, cfg.Graph.Whitelist)
	})

	t.Run("each variable overrides its field", func(t *testing.T) {
		t.Setenv("CCDL_LOG_LEVEL", "debug")
		t.Setenv("CCDL_LOG_FORMAT", "json")
		t.Setenv("CCDL_SIM_CONFIG", "sim.json")
		t.Setenv("CCDL_DB", "env.db")
		t.Setenv("CCDL_WHITELIST", "Tested,Treated")

		cfg := DefaultConfig()
		cfg.Store.Database = "file.db"
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, "sim.json", cfg.Decode.SimConfig)
		assert.Equal(t, "env.db", cfg.Store.Database)
		assert.Equal(t, []string{"Tested", "Treated"}, cfg.Graph.Whitelist)
	})

	t.Run("Load applies overrides over the file", func(t *testing.T) {
		t.Setenv("CCDL_LOG_LEVEL", "warn")
		path := filepath.Join(t.TempDir(), "ccdl.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})
}

func TestLoadEventMap(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	t.Run("reads Event_Map", func(t *testing.T) {
		path := write("full.json", `{"parameters": {"Event_Map": {"Births": "Born", "Tested": "HIVTested"}, "Run_Number": 3}}`)
		aliases, err := LoadEventMap(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Births": "Born", "Tested": "HIVTested"}, aliases)
	})

	t.Run("missing Event_Map is empty", func(t *testing.T) {
		path := write("bare.json", `{"parameters": {"Run_Number": 3}}`)
		aliases, err := LoadEventMap(path)
		require.NoError(t, err)
		assert.Empty(t, aliases)
	})

	t.Run("missing parameters is an error", func(t *testing.T) {
		path := write("noparams.json", `{"Event_Map": {}}`)
		_, err := LoadEventMap(path)
		assert.Error(t, err)
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		_, err := LoadEventMap(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}
