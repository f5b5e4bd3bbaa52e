package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	Cache      CacheConfig
	DataForSEO DataForSEOConfig
	OpenAI     OpenAIConfig
	Mentions   MentionsConfig
	Monitoring MonitoringConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
}

// SQLiteConfig controls the durable store. Enabled=false is a
// supported configuration: the pipeline falls back to in-memory
// storage and keeps working, non-durably.
type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TTLSec int
}

type DataForSEOConfig struct {
	BaseURL    string
	Login      string
	Password   string
	TimeoutSec int
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type MentionsConfig struct {
	MaxResults int
	TimeoutSec int
}

type MonitoringConfig struct {
	Enabled     bool
	IntervalSec int
	BatchLimit  int
	Workers     int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/enricher")

	viper.SetEnvPrefix("ENRICHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)

	viper.SetDefault("sqlite.enabled", true)
	viper.SetDefault("sqlite.path", "./data/enrichment.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.ttlSec", 900)

	viper.SetDefault("dataforseo.baseURL", "https://api.dataforseo.com")
	viper.SetDefault("dataforseo.timeoutSec", 30)

	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.temperature", 0.2)
	viper.SetDefault("openai.maxTokens", 512)
	viper.SetDefault("openai.timeoutSec", 30)

	viper.SetDefault("mentions.maxResults", 5)
	viper.SetDefault("mentions.timeoutSec", 10)

	viper.SetDefault("monitoring.enabled", false)
	viper.SetDefault("monitoring.intervalSec", 3600)
	viper.SetDefault("monitoring.batchLimit", 50)
	viper.SetDefault("monitoring.workers", 4)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
