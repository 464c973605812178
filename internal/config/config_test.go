package config

import (
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every EZQL_ key for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EZQL_DIALECT", "EZQL_DSN", "EZQL_LOG_LEVEL", "EZQL_FORMAT"} {
		t.Setenv(k, "")
	}
}

func load(t *testing.T, fs afero.Fs) *Config {
	t.Helper()
	cfg, err := Load(Options{Fs: fs, Dir: "/work", Home: "/home/u"})
	require.NoError(t, err)
	return cfg
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := load(t, afero.NewMemMapFs())

	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, "ezql.db", cfg.DSN)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Source)
}

func TestLoad_ConfigFileInWorkingDir(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	write(t, fs, "/work/ezql.yaml", "dialect: postgres\ndsn: postgres://localhost/app\n")
	write(t, fs, "/home/u/.config/ezql/ezql.yaml", "dialect: mysql\n")

	cfg := load(t, fs)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.Equal(t, "/work/ezql.yaml", cfg.Source)
}

func TestLoad_ConfigFileInHome(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	write(t, fs, "/home/u/.config/ezql/ezql.yaml", "dialect: mysql\nformat: json\n")

	cfg := load(t, fs)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	write(t, fs, "/etc/ezql/prod.yaml", "log_level: warn\n")

	cfg, err := Load(Options{Fs: fs, Dir: "/work", Home: "/home/u", ConfigFile: "/etc/ezql/prod.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(Options{Fs: fs, Dir: "/work", ConfigFile: "/etc/ezql/missing.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_DotenvOverridesFile(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	write(t, fs, "/work/ezql.yaml", "dialect: postgres\ndsn: from-file\n")
	write(t, fs, "/work/.env", "EZQL_DSN=from-dotenv\nEZQL_DIALECT=mysql\n")
	write(t, fs, "/work/.env.local", "EZQL_DIALECT=sqlite\n")

	cfg := load(t, fs)
	assert.Equal(t, "from-dotenv", cfg.DSN)
	assert.Equal(t, "sqlite", cfg.Dialect, ".env.local wins over .env")
}

func TestLoad_EnvironmentWins(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	write(t, fs, "/work/ezql.yaml", "dsn: from-file\n")
	write(t, fs, "/work/.env", "EZQL_DSN=from-dotenv\n")
	t.Setenv("EZQL_DSN", "from-env")

	cfg := load(t, fs)
	assert.Equal(t, "from-env", cfg.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantMsg string
	}{
		{"dialect", "dialect: oracle\n", "unknown dialect"},
		{"format", "format: xml\n", `invalid format "xml"`},
		{"log level", "log_level: loud\n", `invalid log_level "loud"`},
		{"yaml", "dialect: [\n", "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			fs := afero.NewMemMapFs()
			write(t, fs, "/work/ezql.yaml", tt.file)

			_, err := Load(Options{Fs: fs, Dir: "/work", Home: "/home/u"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		lvl, err := (&Config{LogLevel: in}).Level()
		require.NoError(t, err, in)
		assert.Equal(t, want, lvl, in)
	}
}
