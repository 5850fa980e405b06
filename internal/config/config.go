package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from a yaml file
// with environment variable overrides (env always wins).
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Firebase struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	JWT struct {
		Secret    string `yaml:"secret"`
		ExpiresIn int    `yaml:"expires_in"` // minutes
	} `yaml:"jwt"`

	CORS struct {
		AllowOrigins string `yaml:"allow_origins"`
	} `yaml:"cors"`

	Facebook struct {
		AppID       string `yaml:"app_id"`
		AppSecret   string `yaml:"app_secret"`
		AdAccountID string `yaml:"ad_account_id"`
		PageID      string `yaml:"page_id"`
	} `yaml:"facebook"`

	LinkedIn struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"linkedin"`

	WebsiteURL string `yaml:"website_url"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"rate_limit"`
}

// Load reads the yaml config file and applies environment overrides.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Env = "local"
	cfg.Redis.Port = 6379
	cfg.Redis.PoolSize = 10
	cfg.JWT.ExpiresIn = 60
	cfg.RateLimit.RequestsPerMinute = 120

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides config values from environment variables
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "PORT")

	setString(&cfg.Firebase.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&cfg.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS_FILE")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.JWT.Secret, "JWT_SECRET")

	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	setString(&cfg.Facebook.AppID, "FACEBOOK_APP_ID")
	setString(&cfg.Facebook.AppSecret, "FACEBOOK_APP_SECRET")
	setString(&cfg.Facebook.AdAccountID, "FACEBOOK_AD_ACCOUNT_ID")
	setString(&cfg.Facebook.PageID, "FACEBOOK_PAGE_ID")

	setString(&cfg.LinkedIn.ClientID, "LINKEDIN_CLIENT_ID")
	setString(&cfg.LinkedIn.ClientSecret, "LINKEDIN_CLIENT_SECRET")

	setString(&cfg.WebsiteURL, "WEBSITE_URL")
}

// IsDevelopment reports whether the service runs in a development environment
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "development", "dev", "local":
		return true
	}
	return false
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
