// Package config loads ezql settings from a config file, .env files and
// EZQL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/roach88/ezql/internal/querysql"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. EZQL_DIALECT.
const EnvPrefix = "EZQL"

// Config holds the settings shared by all commands.
type Config struct {
	Dialect  string `mapstructure:"dialect"`
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
	Format   string `mapstructure:"format"`

	// Source is the config file that was read, empty if none.
	Source string `mapstructure:"-"`
}

// Options controls where Load looks.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs

	// ConfigFile is an explicit config path. A missing file is an error.
	ConfigFile string

	// Home overrides the home directory used for $HOME/.config/ezql.
	Home string

	// Dir is the working directory searched for ezql.yaml and .env files.
	// Defaults to the process working directory.
	Dir string
}

// Defaults for every key.
var defaults = map[string]any{
	"dialect":   "sqlite",
	"dsn":       "ezql.db",
	"log_level": "info",
	"format":    "text",
}

// ValidFormats are the accepted output formats.
var ValidFormats = []string{"text", "json"}

// Load resolves settings. Precedence, highest first: environment,
// .env.local, .env, config file, defaults.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		dir = wd
	}

	v := viper.New()
	v.SetFs(fs)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("ezql")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home := homeDir(opts.Home); home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "ezql"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	dotenv, err := readDotenv(fs, dir)
	if err != nil {
		return nil, err
	}
	for key := range defaults {
		envKey := EnvPrefix + "_" + strings.ToUpper(key)
		if os.Getenv(envKey) != "" {
			continue
		}
		if val, ok := dotenv[envKey]; ok {
			v.Set(key, val)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("config loaded",
		"source", cfg.Source,
		"dialect", cfg.Dialect,
		"format", cfg.Format,
	)

	return &cfg, nil
}

// Validate checks that dialect, log level and format are known.
func (c *Config) Validate() error {
	if _, err := querysql.New(c.Dialect); err != nil {
		return fmt.Errorf("config: dialect: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for _, f := range ValidFormats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("config: invalid format %q: must be one of %v", c.Format, ValidFormats)
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// readDotenv merges .env and .env.local from dir. Later files win.
func readDotenv(fs afero.Fs, dir string) (map[string]string, error) {
	merged := map[string]string{}
	for _, name := range []string{".env", ".env.local"} {
		f, err := fs.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		vals, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, val := range vals {
			merged[k] = val
		}
	}
	return merged, nil
}

func homeDir(override string) string {
	if override != "" {
		return override
	}
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return home
}
