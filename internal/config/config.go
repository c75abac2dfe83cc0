package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL    string        `yaml:"database_url"`
	JWTSecret      string        `yaml:"jwt_secret"`
	Port           string        `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	OpenAIKey      string        `yaml:"openai_api_key"`
	OpenAIModel    string        `yaml:"openai_model"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	PlannerTimeout time.Duration `yaml:"planner_timeout"`
	S3Bucket       string        `yaml:"s3_bucket"`
	S3Region       string        `yaml:"s3_region"`
}

// Load reads an optional YAML file named by FLOORIDA_CONFIG and then applies
// environment variables on top of it.
func Load() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("FLOORIDA_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Port, "PORT")
	setString(&cfg.OpenAIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIModel, "OPENAI_MODEL")
	setString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.S3Bucket, "AWS_S3_BUCKET")
	setString(&cfg.S3Region, "AWS_S3_REGION")
	if origins := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if err := setDuration(&cfg.TokenTTL, "TOKEN_TTL"); err != nil {
		return cfg, err
	}
	if err := setDuration(&cfg.PlannerTimeout, "PLANNER_TIMEOUT"); err != nil {
		return cfg, err
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PlannerTimeout <= 0 {
		cfg.PlannerTimeout = 8 * time.Second
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

// CharacterImageURL is the image every new character starts with.
func (c Config) CharacterImageURL() string {
	if c.S3Bucket == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/캐릭터.png", c.S3Bucket, c.S3Region)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
