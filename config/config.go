package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
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

type GameConfig struct {
	// SaveDebounce is the quiet period after a mutation before the game
	// snapshot is written to storage. A new mutation inside the window
	// supersedes the pending write (last-write-wins with coalescing).
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AdminIPs lists addresses allowed to call admin endpoints.
	// Empty allows all (local development only).
	AdminIPs []string `mapstructure:"admin_ips"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/avalon.db")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.save_debounce", "500ms")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
