package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "operator-data.json", cfg.CatalogPath)
	assert.Equal(t, kv.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PICKER_ADDR", ":9090")
	t.Setenv("PICKER_STORAGE_BACKEND", "Badger")
	t.Setenv("PICKER_STORAGE_DIR", "/var/lib/picker")
	t.Setenv("PICKER_LOG_FORMAT", "console")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, kv.BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/picker", cfg.Storage.Dir)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PICKER_CATALOG_PATH=/srv/ops.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PICKER_CATALOG_PATH") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ops.json", cfg.CatalogPath)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picker.yaml")
	body := "addr: \":7000\"\nstorage:\n  backend: memory\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("PICKER_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, kv.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Storage: kv.Config{Backend: kv.BackendMemory}, LogFormat: "json"}},
		{name: "postgres without dsn", cfg: Config{Storage: kv.Config{Backend: kv.BackendPostgres}, LogFormat: "json"}, wantErr: true},
		{name: "sqlite with dsn", cfg: Config{Storage: kv.Config{Backend: kv.BackendSQLite, DSN: "picker.db"}, LogFormat: "console"}},
		{name: "unknown backend", cfg: Config{Storage: kv.Config{Backend: "redis"}, LogFormat: "json"}, wantErr: true},
		{name: "unknown log format", cfg: Config{Storage: kv.Config{Backend: kv.BackendMemory}, LogFormat: "xml"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
