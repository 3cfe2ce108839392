package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Market struct {
		Provider         string            `yaml:"provider"`
		BaseURL          string            `yaml:"base_url"`
		Timeout          time.Duration     `yaml:"timeout"`
		VolatilityTTL    time.Duration     `yaml:"vol_ttl"`
		PriceTTL         time.Duration     `yaml:"price_ttl"`
		VolatilitySymbol string            `yaml:"vol_symbol"`
		Period           string            `yaml:"period"`
		Interval         string            `yaml:"interval"`
		Symbols          map[string]string `yaml:"symbols"`
		Breaker          struct {
			Enabled             bool          `yaml:"enabled"`
			Interval            time.Duration `yaml:"interval"`
			Timeout             time.Duration `yaml:"timeout"`
			ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
		} `yaml:"breaker"`
	} `yaml:"market"`
	Analytics struct {
		Seed           int64         `yaml:"seed"`
		Schedule       string        `yaml:"schedule"`
		StreamInterval time.Duration `yaml:"stream_interval"`
		PositioningTTL time.Duration `yaml:"positioning_ttl"`
	} `yaml:"analytics"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		AnalysesTopic string   `yaml:"analyses_topic"`
		CalendarTopic string   `yaml:"calendar_topic"`
		Compression   string   `yaml:"compression"`
		RequiredAcks  int      `yaml:"required_acks"`
		Consumer      struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"ratelimit"`
}

// Default returns a configuration that runs standalone: Yahoo quotes, in-process caches, no Kafka.
func Default() *Config {
	var c Config
	c.Environment = "development"
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Server.Port = 8001
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowRequest = time.Second
	c.Server.CORS = true
	c.Metrics.Enabled = true
	c.Market.Provider = "yahoo"
	c.Market.Timeout = 5 * time.Second
	c.Market.VolatilityTTL = 300 * time.Second
	c.Market.PriceTTL = 120 * time.Second
	c.Market.VolatilitySymbol = "^VIX"
	c.Market.Period = "5d"
	c.Market.Interval = "1d"
	c.Market.Breaker.Enabled = true
	c.Market.Breaker.Timeout = 30 * time.Second
	c.Market.Breaker.ConsecutiveFailures = 3
	c.Analytics.Schedule = "0 * * * *"
	c.Analytics.StreamInterval = 30 * time.Second
	c.Analytics.PositioningTTL = time.Hour
	c.Redis.Prefix = "karion:"
	c.Kafka.AnalysesTopic = "karion.analyses"
	c.Kafka.CalendarTopic = "karion.calendar"
	c.Kafka.Compression = "gzip"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Consumer.GroupID = "karion"
	c.Kafka.Consumer.Workers = 1
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 50 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 2 * time.Second
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "karion"
	c.RateLimit.RPS = 10
	c.RateLimit.Burst = 20
	return &c
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("MARKET_PROVIDER"); v != "" {
		c.Market.Provider = v
	}
	if v := getenv("MARKET_BASE_URL"); v != "" {
		c.Market.BaseURL = v
	}
	if v := getenv("ANALYTICS_SEED"); v != "" {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ANALYTICS_SEED: %w", err)
		}
		c.Analytics.Seed = s
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Market.Provider {
	case "yahoo":
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when market.provider is clickhouse")
		}
	default:
		return fmt.Errorf("market.provider must be 'yahoo' or 'clickhouse', got '%s'", c.Market.Provider)
	}
	if c.Market.VolatilityTTL <= 0 || c.Market.PriceTTL <= 0 {
		return fmt.Errorf("market.vol_ttl and market.price_ttl must be positive")
	}
	if c.Market.VolatilitySymbol == "" {
		return fmt.Errorf("market.vol_symbol is required")
	}
	if c.Analytics.Schedule == "" {
		return fmt.Errorf("analytics.schedule is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.AnalysesTopic == "" || c.Kafka.CalendarTopic == "" {
			return fmt.Errorf("kafka.analyses_topic and kafka.calendar_topic are required")
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}
