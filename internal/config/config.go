// Package config loads hinter settings from defaults, an optional config
// file, HINTER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/happyhackingspace/hinter/internal/storage"
)

// Store kinds.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Config holds hinter settings.
type Config struct {
	Annotator    string  `mapstructure:"annotator"`
	DataDir      string  `mapstructure:"data_dir"`
	Store        string  `mapstructure:"store"`
	DBPath       string  `mapstructure:"db_path"`
	Seeds        string  `mapstructure:"seeds"`
	ResourcesDir string  `mapstructure:"resources_dir"`
	MaxFeatures  int     `mapstructure:"max_features"`
	BaseRate     float64 `mapstructure:"base_rate"`
	SaveEvery    int     `mapstructure:"save_every"`
	MaxAdd       int     `mapstructure:"max_add"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("annotator", "default")
	v.SetDefault("data_dir", ".")
	v.SetDefault("store", StoreJSON)
	v.SetDefault("db_path", "")
	v.SetDefault("seeds", "config/seed_keywords.yaml")
	v.SetDefault("resources_dir", "resources")
	v.SetDefault("max_features", 300)
	v.SetDefault("base_rate", 0.2)
	v.SetDefault("save_every", 10)
	v.SetDefault("max_add", 3)
}

// Load reads settings into v and decodes them. file selects a config file;
// otherwise .hinter.yaml is searched in the working directory and $HOME.
// A missing config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".hinter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix("HINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings.
func (c *Config) Validate() error {
	c.Annotator = strings.TrimSpace(c.Annotator)
	if c.Annotator == "" {
		return errors.New("config: annotator must not be empty")
	}
	if strings.ContainsAny(c.Annotator, `/\`) {
		return fmt.Errorf("config: invalid annotator %q", c.Annotator)
	}
	switch c.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown store %q (want %s or %s)", c.Store, StoreJSON, StoreSQLite)
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("config: max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.BaseRate <= 0 {
		return fmt.Errorf("config: base_rate must be positive, got %v", c.BaseRate)
	}
	if c.SaveEvery <= 0 {
		c.SaveEvery = 1
	}
	if c.MaxAdd < 0 {
		c.MaxAdd = 0
	}
	return nil
}

// OpenStore opens the configured model store.
func (c *Config) OpenStore() (storage.Store, error) {
	if c.Store == StoreSQLite {
		path := c.DBPath
		if path == "" {
			path = filepath.Join(c.DataDir, "hinter.db")
		}
		return storage.OpenSQLite(path)
	}
	return storage.NewFileStore(c.DataDir), nil
}

// StopWordsFile returns the optional stopword list.
func (c *Config) StopWordsFile() string {
	return filepath.Join(c.ResourcesDir, "stopwords.txt")
}

// UserDictFile returns the optional segmenter dictionary.
func (c *Config) UserDictFile() string {
	return filepath.Join(c.ResourcesDir, "user_dict.txt")
}
