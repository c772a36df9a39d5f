package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Slack       SlackConfig    `yaml:"slack"`
	Sheets      SheetsConfig   `yaml:"sheets"`
	RabbitMQ    RabbitMQConfig `yaml:"rabbitmq"`
	API         APIConfig      `yaml:"api"`
	Tracker     TrackerConfig  `yaml:"tracker"`
	HTTP        HTTPConfig     `yaml:"http"`
	MetricsAddr string         `yaml:"metrics_addr"`
	LogLevel    string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type SheetsConfig struct {
	BaseURL       string `yaml:"base_url"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	SheetName     string `yaml:"sheet_name"`
	Token         string `yaml:"token"`
}

// RabbitMQConfig describes the optional event-stream sink. An empty URL
// disables it.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Key     string        `yaml:"key"`
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type TrackerConfig struct {
	Handle   string        `yaml:"handle"`
	Keyword  string        `yaml:"keyword"`
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"`
	Count    int           `yaml:"count"`
	Region   string        `yaml:"region"`
}

// SearchQuery is the keyword sent to the search API: the handle without
// the leading @.
func (t TrackerConfig) SearchQuery() string {
	return strings.TrimPrefix(t.Handle, "@")
}

type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	WebhookSecret string `yaml:"webhook_secret"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Sheets.BaseURL == "" {
		c.Sheets.BaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Mentions"
	}
	if c.RabbitMQ.Enabled() {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "mention_tracker"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "mentions"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "mention_events"
		}
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://tiktok-video-no-watermark2.p.rapidapi.com"
	}
	if c.API.Host == "" {
		c.API.Host = "tiktok-video-no-watermark2.p.rapidapi.com"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 1 * time.Second
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 30 * time.Second
	}
	if c.API.RPS == 0 {
		c.API.RPS = 1
	}
	if c.API.Burst == 0 {
		c.API.Burst = 3
	}
	if c.Tracker.Handle == "" {
		c.Tracker.Handle = "@bracketology.tv"
	}
	if c.Tracker.Keyword == "" {
		// The brand token: handle without @, up to the first dot. The search
		// query stays "bracketology.tv" but a caption only needs to contain
		// "bracketology" to count as relevant.
		c.Tracker.Keyword = strings.ToLower(strings.SplitN(c.Tracker.SearchQuery(), ".", 2)[0])
	}
	if c.Tracker.Interval == 0 {
		c.Tracker.Interval = 120 * time.Minute
	}
	if c.Tracker.Window == 0 {
		c.Tracker.Window = 300 * time.Minute
	}
	if c.Tracker.Count == 0 {
		c.Tracker.Count = 30
	}
	if c.Tracker.Region == "" {
		c.Tracker.Region = "US"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
