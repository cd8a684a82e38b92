package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	DiscordBot DiscordBotConfig
	PostgreSQL PostgreSQLConfig
	Calculate  CalculateConfig
	Chat       ChatConfig
	Store      StoreConfig
	API        APIConfig
}

// DiscordBotConfig holds Discord bot configuration
type DiscordBotConfig struct {
	Token string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Schema       string
	PoolMaxConns int
}

// CalculateConfig holds the calculate-service endpoint and the polling
// timings of the settlement request lifecycle.
type CalculateConfig struct {
	BaseURL           string
	RequestTimeout    time.Duration
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	MaxWait           time.Duration
}

// ChatConfig holds the chat-upload endpoint of the expense backend. An
// empty BaseURL disables chat recording.
type ChatConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// StoreConfig holds the settlement file-store location
type StoreConfig struct {
	DataDir string
}

// APIConfig holds the settlements HTTP API configuration
type APIConfig struct {
	Port string
}

// Load reads configuration from the given file path
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("PostgreSQL.Host", "localhost")
	viper.SetDefault("PostgreSQL.Port", 5432)
	viper.SetDefault("PostgreSQL.User", "postgres")
	viper.SetDefault("PostgreSQL.DBName", "tallybot-db")
	viper.SetDefault("PostgreSQL.Schema", "public")
	viper.SetDefault("PostgreSQL.PoolMaxConns", 10)
	viper.SetDefault("Calculate.RequestTimeout", "10s")
	viper.SetDefault("Calculate.PollInterval", "1s")
	viper.SetDefault("Calculate.HeartbeatInterval", "10s")
	viper.SetDefault("Calculate.MaxWait", "60s")
	viper.SetDefault("Chat.RequestTimeout", "10s")
	viper.SetDefault("Store.DataDir", "data")
	viper.SetDefault("API.Port", "4000")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DiscordBot.Token == "" {
		return nil, fmt.Errorf("DiscordBot.Token is required")
	}
	if cfg.Calculate.BaseURL == "" {
		return nil, fmt.Errorf("Calculate.BaseURL is required")
	}

	return &cfg, nil
}
