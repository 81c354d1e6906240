package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                string `yaml:"port"`
	LogLevel            string `yaml:"logLevel"`
	DatabaseURL         string `yaml:"databaseURL"`
	OutputDir           string `yaml:"outputDir"`
	HuggingFaceAPIKey   string `yaml:"huggingfaceApiKey"`
	OpenAIAPIKey        string `yaml:"openaiApiKey"`
	MinioEndpoint       string `yaml:"minioEndpoint"`
	MinioAccessKey      string `yaml:"minioAccessKey"`
	MinioSecretKey      string `yaml:"minioSecretKey"`
	MinioBucket         string `yaml:"minioBucket"`
	MinioUseSSL         bool   `yaml:"minioUseSSL"`
	InternalTokenSecret string `yaml:"internalTokenSecret"`
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
	if v := os.Getenv("MEDIA_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("HUGGINGFACE_API_KEY"); v != "" {
		cfg.HuggingFaceAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("ESTATECAST_INTERNAL_TOKEN_SECRET"); v != "" {
		cfg.InternalTokenSecret = v
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "generated_images"
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
	if cfg.InternalTokenSecret == "" {
		return errors.New("config: internalTokenSecret is required (set in config.yaml or ESTATECAST_INTERNAL_TOKEN_SECRET)")
	}
	// Archival is optional, but a partial minio block is a misconfiguration.
	if cfg.MinioEndpoint != "" {
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
			return errors.New("config: minio requires accessKey, secretKey, and bucket when endpoint is set")
		}
	}
	return nil
}
