package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Stash    StashConfig    `mapstructure:"stash"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Host     HostConfig     `mapstructure:"host"`
	Security SecurityConfig `mapstructure:"security"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	AdminKey       string   `mapstructure:"admin_key"`
	AdminIPs       []string `mapstructure:"admin_ips"`       // empty allows every IP
	AllowedOrigins []string `mapstructure:"allowed_origins"` // /ws/host upgrade origins; empty allows any
}

// StashConfig controls the storage snapshot cache.
type StashConfig struct {
	// DataDir is the mod's private data directory; the snapshot file lives directly in it.
	DataDir       string        `mapstructure:"data_dir"`
	MaxDepth      int           `mapstructure:"max_depth"`
	FlushInterval time.Duration `mapstructure:"flush_interval"` // 0 disables periodic flushes
	// Mirrors lists extra stores written alongside the file: "database", "cache".
	Mirrors []string `mapstructure:"mirrors"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// HostConfig points at the world fixture that stands in for the game host.
type HostConfig struct {
	WorldPath string `mapstructure:"world_path"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type JournalConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("stash.data_dir", "./data/mod")
	v.SetDefault("stash.max_depth", 64)
	v.SetDefault("stash.flush_interval", "5m")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/stash.db")
	v.SetDefault("database.mysql_max_open", 10)
	v.SetDefault("database.mysql_max_idle", 2)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("host.world_path", "./data/world.json")
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.flush_interval", "2s")
	v.SetDefault("journal.batch_size", 100)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
