package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PICKER"

type Config struct {
	Addr        string
	CatalogPath string
	Storage     kv.Config
	LogLevel    string
	LogFormat   string // json | console
}

// Load reads envFile (if it exists) into the environment, then an optional
// config file named by PICKER_CONFIG, then PICKER_* variables. Later sources
// win.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("catalog_path", "operator-data.json")
	v.SetDefault("storage.backend", string(kv.BackendFile))
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:        v.GetString("addr"),
		CatalogPath: v.GetString("catalog_path"),
		Storage: kv.Config{
			Backend: kv.Backend(strings.ToLower(v.GetString("storage.backend"))),
			Dir:     v.GetString("storage.dir"),
			DSN:     v.GetString("storage.dsn"),
		},
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case kv.BackendMemory, kv.BackendFile, kv.BackendBadger:
	case kv.BackendPostgres, kv.BackendSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage backend %s needs %s_STORAGE_DSN", c.Storage.Backend, envPrefix)
		}
	default:
		return fmt.Errorf("%w: %q", kv.ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Backend == kv.BackendFile && c.Storage.Dir == "" {
		return fmt.Errorf("storage backend file needs %s_STORAGE_DIR", envPrefix)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
