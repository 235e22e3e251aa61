package config

import (
	"fmt"
	"strings"

	"basementbot/database"

	"github.com/spf13/viper"
)

// Config holds all application configuration, loaded once at startup
// from a YAML file. It is not hot-reloaded.
type Config struct {
	Main Main `mapstructure:"main"`
}

// Main is the top-level config section.
type Main struct {
	AuthToken          string   `mapstructure:"auth_token"`
	DefaultPrefix      string   `mapstructure:"default_prefix"`
	DisabledExtensions []string `mapstructure:"disabled_extensions"`

	Admins   Admins   `mapstructure:"admins"`
	Postgres Postgres `mapstructure:"postgres"`
	Mongo    Mongo    `mapstructure:"mongodb"`
	NATS     NATS     `mapstructure:"nats"`
	Cache    Cache    `mapstructure:"cache"`

	// Environment is "development", "production" or "test"
	Environment string `mapstructure:"environment"`
}

// Admins identifies users and roles that bypass permission checks.
type Admins struct {
	IDs   []string `mapstructure:"ids"`
	Roles []string `mapstructure:"roles"`
}

// Postgres holds relational store connection settings.
type Postgres struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// Mongo holds document store connection settings.
type Mongo struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// NATS holds message broker settings. Servers is a comma-separated list.
type NATS struct {
	Servers string `mapstructure:"servers"`
}

// Cache holds TTL settings, in seconds.
type Cache struct {
	GuildConfigSeconds int `mapstructure:"guild_config_seconds"`
	HTTPCacheSeconds   int `mapstructure:"http_cache_seconds"`
}

// Load reads the config file at path and applies env-var overrides
// (prefix BB_, dots and dashes mapped to underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("main.default_prefix", ".")
	v.SetDefault("main.environment", "development")
	v.SetDefault("main.nats.servers", "")
	v.SetDefault("main.cache.guild_config_seconds", 300)
	v.SetDefault("main.cache.http_cache_seconds", 60)

	v.SetEnvPrefix("BB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required keys are present. The test environment
// is exempt so unit tests can run with partial configs.
func (c *Config) Validate() error {
	if c.Main.Environment == "test" {
		return nil
	}

	var missing []string
	if c.Main.AuthToken == "" {
		missing = append(missing, "main.auth_token")
	}
	if c.Main.Postgres.URL == "" {
		missing = append(missing, "main.postgres.url")
	}
	if c.Main.Mongo.URL == "" {
		missing = append(missing, "main.mongodb.url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}

	return nil
}

// PostgresURL constructs the full relational database URL.
func (c *Config) PostgresURL() string {
	return database.ConstructDatabaseURL(c.Main.Postgres.URL, c.Main.Postgres.Name)
}

// NewTestConfig creates a minimal config suitable for unit tests.
func NewTestConfig() *Config {
	return &Config{
		Main: Main{
			DefaultPrefix: ".",
			Environment:   "test",
			Cache: Cache{
				GuildConfigSeconds: 300,
				HTTPCacheSeconds:   60,
			},
		},
	}
}
