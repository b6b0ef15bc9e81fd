package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	PLM     PLMConfig
	AI      AIConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Deck    DeckConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
}

type PLMConfig struct {
	BaseURL       string
	TimeoutSec    int
	PageSize      int
	MaxPages      int
	ListCacheTTL  int
	SessionHeader string
	RetryAttempts int
}

type AIConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type DeckConfig struct {
	OperationTimeoutSec int
	MaxCollections      int
	MaxCollectionItems  int
	DefaultDetailLevel  string
	WithImages          bool
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
	viper.AddConfigPath("/etc/plmdeck")

	viper.SetEnvPrefix("PLMDECK")
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
	viper.SetDefault("server.bodyLimit", 10485760)
	viper.SetDefault("server.allowedOrigins", []string{})
	viper.SetDefault("server.development", false)

	viper.SetDefault("plm.baseURL", "https://api.arenasolutions.com/v1")
	viper.SetDefault("plm.timeoutSec", 30)
	viper.SetDefault("plm.pageSize", 400)
	viper.SetDefault("plm.maxPages", 0)
	viper.SetDefault("plm.listCacheTTL", 120)
	viper.SetDefault("plm.sessionHeader", "arena_session_id")
	viper.SetDefault("plm.retryAttempts", 3)

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.baseURL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("ai.model", "gemini-1.5-flash")
	viper.SetDefault("ai.temperature", 0.4)
	viper.SetDefault("ai.maxTokens", 1024)
	viper.SetDefault("ai.timeoutSec", 60)

	viper.SetDefault("sqlite.path", "./data/plmdeck.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("deck.operationTimeoutSec", 300)
	viper.SetDefault("deck.maxCollections", 5)
	viper.SetDefault("deck.maxCollectionItems", 10)
	viper.SetDefault("deck.defaultDetailLevel", "medium")
	viper.SetDefault("deck.withImages", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
