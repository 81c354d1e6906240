package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                     string `yaml:"port"`
	LogLevel                 string `yaml:"logLevel"`
	DatabaseURL              string `yaml:"databaseURL"`
	RedisAddr                string `yaml:"redisAddr"`
	RedisPassword            string `yaml:"redisPassword"`
	FacebookAppID            string `yaml:"facebookAppId"`
	FacebookAppSecret        string `yaml:"facebookAppSecret"`
	FacebookRedirectURL      string `yaml:"facebookRedirectUrl"`
	TokenSealKey             string `yaml:"tokenSealKey"`
	MediaURL                 string `yaml:"mediaUrl"`
	PublicBaseURL            string `yaml:"publicBaseUrl"`
	InternalTokenSecret      string `yaml:"internalTokenSecret"`
	QueueName                string `yaml:"queueName"`
	QueueGroup               string `yaml:"queueGroup"`
	QueueMaxRetries          int    `yaml:"queueMaxRetries"`
	PublishConcurrency       int    `yaml:"publishConcurrency"`
	SchedulerIntervalSeconds int    `yaml:"schedulerIntervalSeconds"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("FACEBOOK_APP_ID"); v != "" {
		cfg.FacebookAppID = v
	}
	if v := os.Getenv("FACEBOOK_APP_SECRET"); v != "" {
		cfg.FacebookAppSecret = v
	}
	if v := os.Getenv("FACEBOOK_REDIRECT_URL"); v != "" {
		cfg.FacebookRedirectURL = v
	}
	if v := os.Getenv("ESTATECAST_TOKEN_SEAL_KEY"); v != "" {
		cfg.TokenSealKey = v
	}
	if v := os.Getenv("ESTATECAST_INTERNAL_TOKEN_SECRET"); v != "" {
		cfg.InternalTokenSecret = v
	}
	if v := os.Getenv("MEDIA_URL"); v != "" {
		cfg.MediaURL = v
	}
	if v := os.Getenv("ESTATECAST_PUBLIC_BASE_URL"); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := os.Getenv("PUBLISHER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("config: invalid PUBLISHER_CONCURRENCY %q", v)
		}
		cfg.PublishConcurrency = n
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.FacebookAppID == "" || cfg.FacebookAppSecret == "" {
		return errors.New("config: facebookAppId and facebookAppSecret are required (set in config.yaml or FACEBOOK_APP_ID/FACEBOOK_APP_SECRET)")
	}
	if cfg.FacebookRedirectURL == "" {
		return errors.New("config: facebookRedirectUrl is required (set in config.yaml or FACEBOOK_REDIRECT_URL)")
	}
	if cfg.TokenSealKey == "" {
		return errors.New("config: tokenSealKey is required (set in config.yaml or ESTATECAST_TOKEN_SEAL_KEY)")
	}
	// Image generation is optional, but it cannot run without the shared
	// internal token secret.
	if cfg.MediaURL != "" && cfg.InternalTokenSecret == "" {
		return errors.New("config: internalTokenSecret is required when mediaUrl is set")
	}
	if cfg.QueueMaxRetries < 0 {
		return errors.New("config: queueMaxRetries must be >= 0")
	}
	if cfg.PublishConcurrency < 0 {
		return errors.New("config: publishConcurrency must be >= 0")
	}
	if cfg.SchedulerIntervalSeconds < 0 {
		return errors.New("config: schedulerIntervalSeconds must be >= 0")
	}
	return nil
}
