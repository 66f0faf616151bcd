package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lk2023060901/property-research-backend/internal/pkg/database"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/pkg/redis"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Log      logger.Config   `mapstructure:"log"`
	Search   SearchConfig    `mapstructure:"search"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig disables the shared result cache tier when Enabled is false
type RedisConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
}

type SearchConfig struct {
	Google         types.ProviderConfig `mapstructure:"google"`
	SerpAPI        types.ProviderConfig `mapstructure:"serpapi"`
	CacheTTL       time.Duration        `mapstructure:"cache_ttl"`
	CacheSize      int                  `mapstructure:"cache_size"`
	MaxConcurrency int                  `mapstructure:"max_concurrency"`

	// Interval of SSE heartbeat comments on project run streams, 0 disables them
	StreamHeartbeat time.Duration `mapstructure:"stream_heartbeat"`
}

// Providers returns the provider configs in a stable order
func (c *SearchConfig) Providers() []*types.ProviderConfig {
	return []*types.ProviderConfig{&c.Google, &c.SerpAPI}
}

// LoadConfig reads path (or ./configs/config.yaml when empty), then applies
// .env and environment overrides. SEARCH_GOOGLE_API_KEY overrides
// search.google.api_key.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate checks every section. Provider credentials are not required
// here; a provider without a key is simply not searchable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := c.Redis.Config.Validate(); err != nil {
			return err
		}
	}
	if c.Search.CacheSize < 0 || c.Search.CacheTTL < 0 {
		return errors.New("search cache_size and cache_ttl must not be negative")
	}
	if c.Search.MaxConcurrency < 0 {
		return errors.New("search max_concurrency must not be negative")
	}
	return nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	db := database.DefaultConfig()
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.maxidleconns", db.MaxIdleConns)
	v.SetDefault("database.maxopenconns", db.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connmaxidletime", db.ConnMaxIdleTime)
	v.SetDefault("database.loglevel", db.LogLevel)
	v.SetDefault("database.slowthreshold", db.SlowThreshold)
	v.SetDefault("database.skipdefaulttx", db.SkipDefaultTx)
	v.SetDefault("database.preparestmt", db.PrepareStmt)
	v.SetDefault("database.automigrate", true)

	rdb := redis.DefaultConfig()
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.mode", string(rdb.Mode))
	v.SetDefault("redis.addrs", rdb.Addrs)
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", rdb.DB)
	v.SetDefault("redis.pool_size", rdb.PoolSize)
	v.SetDefault("redis.min_idle_conns", rdb.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rdb.DialTimeout)
	v.SetDefault("redis.read_timeout", rdb.ReadTimeout)
	v.SetDefault("redis.write_timeout", rdb.WriteTimeout)
	v.SetDefault("redis.max_retries", rdb.MaxRetries)
	v.SetDefault("redis.key_prefix", rdb.KeyPrefix)

	log := logger.DefaultConfig()
	v.SetDefault("log.level", log.Level)
	v.SetDefault("log.format", log.Format)
	v.SetDefault("log.output", log.Output)
	v.SetDefault("log.enable_caller", log.EnableCaller)
	v.SetDefault("log.enable_stacktrace", log.EnableStacktrace)
	v.SetDefault("log.file.filename", log.File.Filename)
	v.SetDefault("log.file.max_size", log.File.MaxSize)
	v.SetDefault("log.file.max_age", log.File.MaxAge)
	v.SetDefault("log.file.max_backups", log.File.MaxBackups)
	v.SetDefault("log.file.compress", log.File.Compress)

	providerDefaults(v, "search.google", types.ProviderGoogle, "Google Custom Search", "https://www.googleapis.com")
	providerDefaults(v, "search.serpapi", types.ProviderSerpAPI, "SerpAPI", "https://serpapi.com")
	v.SetDefault("search.cache_ttl", 15*time.Minute)
	v.SetDefault("search.cache_size", 1024)
	v.SetDefault("search.max_concurrency", 4)
	v.SetDefault("search.stream_heartbeat", 15*time.Second)
}

func providerDefaults(v *viper.Viper, prefix string, id types.ProviderID, name, host string) {
	v.SetDefault(prefix+".id", string(id))
	v.SetDefault(prefix+".name", name)
	v.SetDefault(prefix+".api_host", host)
	v.SetDefault(prefix+".api_key", "")
	v.SetDefault(prefix+".engine_id", "")
	v.SetDefault(prefix+".timeout", 10)
	v.SetDefault(prefix+".max_retries", 3)
}
