package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// League pairs a sport key with the markets requested for it.
type League struct {
	SportKey string   `yaml:"sport_key"`
	Markets  []string `yaml:"markets"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	OddsAPI struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		Regions        []string      `yaml:"regions"`
		Bookmaker      string        `yaml:"bookmaker"`
		Leagues        []League      `yaml:"leagues"`
		Timeout        time.Duration `yaml:"timeout"`
		RequestsPerSec float64       `yaml:"requests_per_sec"`
	} `yaml:"odds_api"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`
	Pipeline struct {
		InsertChunkSize int           `yaml:"insert_chunk_size"`
		HardFailRatio   float64       `yaml:"hard_fail_ratio"`
		StageTimeout    time.Duration `yaml:"stage_timeout"`
	} `yaml:"pipeline"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables before validating, so secrets can stay out of the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		c.OddsAPI.APIKey = v
	}
	if v := os.Getenv("ODDS_BOOKMAKER"); v != "" {
		c.OddsAPI.Bookmaker = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.OddsAPI.BaseURL == "" {
		c.OddsAPI.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if len(c.OddsAPI.Regions) == 0 {
		c.OddsAPI.Regions = []string{"uk", "us"}
	}
	if c.OddsAPI.Timeout == 0 {
		c.OddsAPI.Timeout = 30 * time.Second
	}
	if c.OddsAPI.RequestsPerSec == 0 {
		c.OddsAPI.RequestsPerSec = 2
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "oddsflow"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "oddsflow"
	}
	if c.Pipeline.InsertChunkSize == 0 {
		c.Pipeline.InsertChunkSize = 500
	}
	if c.Pipeline.HardFailRatio == 0 {
		c.Pipeline.HardFailRatio = 0.5
	}
	if c.Pipeline.StageTimeout == 0 {
		c.Pipeline.StageTimeout = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.OddsAPI.APIKey == "" {
		return fmt.Errorf("odds_api.api_key is required")
	}
	if c.OddsAPI.Bookmaker == "" {
		return fmt.Errorf("odds_api.bookmaker is required")
	}
	if len(c.OddsAPI.Leagues) == 0 {
		return fmt.Errorf("odds_api.leagues cannot be empty")
	}
	for i, l := range c.OddsAPI.Leagues {
		if l.SportKey == "" {
			return fmt.Errorf("odds_api.leagues[%d].sport_key is required", i)
		}
		if len(l.Markets) == 0 {
			return fmt.Errorf("odds_api.leagues[%d].markets cannot be empty", i)
		}
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Pipeline.HardFailRatio < 0 || c.Pipeline.HardFailRatio > 1 {
		return fmt.Errorf("pipeline.hard_fail_ratio must be in [0, 1], got %v", c.Pipeline.HardFailRatio)
	}
	return nil
}
