// Package config loads application configuration from environment variables
// and the YAML company roster.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	DB            DBConfig
	Server        ServerConfig
	S3            S3Config
	Slack         SlackConfig
	Scraper       ScraperConfig
	CompaniesFile string
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	DBName  string
	SSLMode string
}

// DSN returns a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Pass +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.DBName + "?sslmode=" + c.SSLMode
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// S3Config holds S3-compatible object storage parameters for page snapshots.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

// SlackConfig holds the bot credentials and the notification target.
type SlackConfig struct {
	BotToken      string
	SigningSecret string
	Channel       string
}

// Configured reports whether Slack notifications can be sent at all.
func (c SlackConfig) Configured() bool {
	return c.BotToken != "" && c.Channel != ""
}

// ScraperConfig holds extraction tuning knobs shared by all scrapers.
type ScraperConfig struct {
	Timeout           time.Duration
	Retries           int
	MaxLoadMoreClicks int
	Workers           int
	Headless          bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DB: DBConfig{
			Host:    envOr("DB_HOST", "localhost"),
			Port:    envOrInt("DB_PORT", 5432),
			User:    envOr("DB_USER", "newsagg"),
			Pass:    envOr("DB_PASS", "newsagg"),
			DBName:  envOr("DB_NAME", "newsagg"),
			SSLMode: envOr("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", ":8080"),
			Host: envOr("SERVER_HOST", ""),
		},
		S3: S3Config{
			Endpoint:  envOr("S3_ENDPOINT", ""),
			Bucket:    envOr("S3_BUCKET", "newsagg-snapshots"),
			AccessKey: envOr("S3_ACCESS_KEY", ""),
			SecretKey: envOr("S3_SECRET_KEY", ""),
			Region:    envOr("S3_REGION", "ap-northeast-1"),
		},
		Slack: SlackConfig{
			BotToken:      envOr("SLACK_BOT_TOKEN", ""),
			SigningSecret: envOr("SLACK_SIGNING_SECRET", ""),
			Channel:       envOr("SLACK_CHANNEL", "#news"),
		},
		Scraper: ScraperConfig{
			Timeout:           time.Duration(envOrInt("SCRAPER_TIMEOUT_SECONDS", 30)) * time.Second,
			Retries:           envOrInt("SCRAPER_RETRIES", 3),
			MaxLoadMoreClicks: envOrInt("SCRAPER_MAX_LOAD_MORE_CLICKS", 10),
			Workers:           envOrInt("SCRAPER_WORKERS", 4),
			Headless:          envOrBool("SCRAPER_HEADLESS", true),
		},
		CompaniesFile: envOr("COMPANIES_FILE", "configs/companies.yaml"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
