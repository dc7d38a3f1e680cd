/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the account-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	FabrickAPIBaseURL          string `mapstructure:"FABRICK_API_BASE_URL"`
	FabrickAPIKey              string `mapstructure:"FABRICK_API_KEY"`
	FabrickAuthSchema          string `mapstructure:"FABRICK_AUTH_SCHEMA"`
	FabrickAccountID           string `mapstructure:"FABRICK_ACCOUNT_ID"`
	BusRequestTimeoutSeconds   int    `mapstructure:"BUS_REQUEST_TIMEOUT_SECONDS"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("FABRICK_API_BASE_URL", "https://sandbox.platfr.io")
	viper.SetDefault("FABRICK_AUTH_SCHEMA", "S2S")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "conto:rate_limit")
	viper.SetDefault("BUS_REQUEST_TIMEOUT_SECONDS", 100)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("FABRICK_API_BASE_URL")
	_ = viper.BindEnv("FABRICK_API_KEY", "FABRICK_API_KEY", "FABRICK_AUTH_API_KEY")
	_ = viper.BindEnv("FABRICK_AUTH_SCHEMA")
	_ = viper.BindEnv("FABRICK_ACCOUNT_ID")
	_ = viper.BindEnv("BUS_REQUEST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "conto:rate_limit"
	}
	config.FabrickAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.FabrickAPIBaseURL), "/")
	config.FabrickAccountID = strings.TrimSpace(config.FabrickAccountID)

	if config.BusRequestTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive bus request timeout configured; using default\" seconds=%d", config.BusRequestTimeoutSeconds)
		config.BusRequestTimeoutSeconds = 100
	}
	if config.TransferRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative transfer rate limit configured; disabling\" per_minute=%d", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}

	return
}
