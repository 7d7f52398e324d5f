package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dori/planner/internal/cache"
	"github.com/dori/planner/internal/db"
)

// DefaultOwner is the account all rows belong to unless configured otherwise
const DefaultOwner int64 = 1

// Config holds application configuration
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Owner    int64          `mapstructure:"owner"`
	DB       DBConfig       `mapstructure:"db"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Purge    PurgeConfig    `mapstructure:"purge"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DBConfig selects and reaches the record store
type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectDelay    time.Duration `mapstructure:"connect_delay"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// CacheConfig sets listing lifetimes; negative disables
type CacheConfig struct {
	TasksTTL    time.Duration `mapstructure:"tasks_ttl"`
	ProjectsTTL time.Duration `mapstructure:"projects_ttl"`
}

// CalendarConfig configures Google Calendar sync
type CalendarConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ID              string `mapstructure:"id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// PurgeConfig controls removal of old completed tasks
type PurgeConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// NotifyConfig controls desktop reminders
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// UIConfig holds dashboard settings
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfigPath returns ~/.config/planner/config.yaml
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".planner", "config.yaml")
	}
	return filepath.Join(dir, "planner", "config.yaml")
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	cfg, _ := load(viper.New(), "")
	return cfg
}

func setDefaults(v *viper.Viper) {
	dataDir := db.DefaultDataDir()
	configDir := filepath.Dir(DefaultConfigPath())

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("owner", DefaultOwner)

	v.SetDefault("db.driver", string(db.DialectSQLite))
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.connect_attempts", 3)
	v.SetDefault("db.connect_delay", time.Second)
	v.SetDefault("db.connect_timeout", 5*time.Second)

	v.SetDefault("cache.tasks_ttl", cache.DefaultTasksTTL)
	v.SetDefault("cache.projects_ttl", cache.DefaultProjectsTTL)

	v.SetDefault("calendar.enabled", false)
	v.SetDefault("calendar.id", "primary")
	v.SetDefault("calendar.credentials_file", filepath.Join(configDir, "credentials.json"))
	v.SetDefault("calendar.token_file", "")

	v.SetDefault("purge.retention_days", 30)
	v.SetDefault("notify.enabled", true)
	v.SetDefault("ui.theme", "nord")
}

// LoadConfig reads path (the default location when empty) and PLANNER_*
// environment variables over the defaults. A missing default file is not
// an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		path = ""
	}

	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve fills paths that derive from the data directory
func (c *Config) resolve() {
	if c.DataDir == "" {
		c.DataDir = db.DefaultDataDir()
	}
	if c.DB.Driver == string(db.DialectSQLite) && c.DB.DSN == "" {
		c.DB.DSN = filepath.Join(c.DataDir, "planner.db")
	}
	if c.Calendar.TokenFile == "" {
		c.Calendar.TokenFile = filepath.Join(c.DataDir, "token.json")
	}
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch db.Dialect(c.DB.Driver) {
	case db.DialectSQLite:
	case db.DialectPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("config: db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.Owner <= 0 {
		return fmt.Errorf("config: owner must be positive, got %d", c.Owner)
	}
	if c.Purge.RetentionDays < 0 {
		return fmt.Errorf("config: purge.retention_days must not be negative")
	}
	return nil
}

// StoreOptions converts the db section for db.Open
func (c *Config) StoreOptions() db.Options {
	return db.Options{
		Driver:          c.DB.Driver,
		DSN:             c.DB.DSN,
		ConnectAttempts: c.DB.ConnectAttempts,
		ConnectDelay:    c.DB.ConnectDelay,
		ConnectTimeout:  c.DB.ConnectTimeout,
	}
}

// CacheOptions converts the cache section for cache.New
func (c *Config) CacheOptions() cache.Config {
	return cache.Config{
		TasksTTL:    c.Cache.TasksTTL,
		ProjectsTTL: c.Cache.ProjectsTTL,
	}
}
