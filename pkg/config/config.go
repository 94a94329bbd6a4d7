package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"PriceCast/internal/services/modelstore"
	"PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logger      logger.Config    `yaml:"logger"`
	Forecast    ForecastConfig   `yaml:"forecast"`
	ModelStore  ModelStoreConfig `yaml:"model_store"`
	Redis       RedisConfig      `yaml:"redis"`
	BarStore    BarStoreConfig   `yaml:"bar_store"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Collector   CollectorConfig  `yaml:"collector"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// ForecastConfig is the surface consumed by the forecasting core.
type ForecastConfig struct {
	WindowSize       int      `yaml:"window_size" default:"24" validate:"gte=2"`
	DefaultHorizon   int      `yaml:"default_horizon" default:"6" validate:"gte=0,ltefield=MaxHorizon"`
	MaxHorizon       int      `yaml:"max_horizon" default:"168" validate:"gte=1"`
	BandWidth        float64  `yaml:"band_width" default:"0.03" validate:"gte=0,lt=1"`
	FallbackSpread   float64  `yaml:"fallback_spread" default:"0.02" validate:"gte=0,lt=1"`
	DisplayPrecision int32    `yaml:"display_precision" default:"2" validate:"gte=0,lte=12"`
	Symbols          []string `yaml:"symbols" validate:"required,min=1,dive,required,alphanum"`
}

type ModelStoreConfig struct {
	Backend     string        `yaml:"backend" default:"file" validate:"oneof=file redis"`
	ArtifactDir string        `yaml:"artifact_dir" default:"pkdata"`
	CacheTTL    time.Duration `yaml:"cache_ttl" default:"5m"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"pricecast"`
}

type BarStoreConfig struct {
	Type       string `yaml:"type" default:"sqlite" validate:"oneof=sqlite clickhouse"`
	SQLitePath string `yaml:"sqlite_path" default:"data/bars.db"`
	FetchHours int    `yaml:"fetch_hours" default:"72" validate:"gte=1,lte=1000"`
}

type ClickHouseConfig struct {
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"pricecast"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	UseHTTP      bool          `yaml:"use_http"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
}

type CollectorConfig struct {
	Enabled        bool          `yaml:"enabled" default:"true"`
	Cron           string        `yaml:"cron" default:"5 * * * *"`
	BinanceURL     string        `yaml:"binance_url" default:"https://api.binance.com" validate:"url"`
	Timeout        time.Duration `yaml:"timeout" default:"10s"`
	RequestsPerSec float64       `yaml:"requests_per_sec" default:"5" validate:"gt=0"`
	MaxRetries     uint64        `yaml:"max_retries" default:"3"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"forecasts.hourly"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	c.Forecast.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()

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
	return c, nil
}

// ApplyEnv overrides fields from the environment and revalidates.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("SYMBOLS"); v != "" {
		c.Forecast.Symbols = splitList(v)
	}
	if v := getenv("ARTIFACT_DIR"); v != "" {
		c.ModelStore.ArtifactDir = v
	}
	if v := getenv("MODEL_BACKEND"); v != "" {
		c.ModelStore.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("BAR_STORE"); v != "" {
		c.BarStore.Type = v
	}
	if v := getenv("FETCH_HOURS"); v != "" {
		c.BarStore.FetchHours = util.ParseIntDefault(v, c.BarStore.FetchHours)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.ModelStore.Backend == "file" && c.ModelStore.ArtifactDir == "" {
		return fmt.Errorf("model_store.artifact_dir is required for the file backend")
	}
	if err := modelstore.CheckArtifactNames(c.Forecast.Symbols); err != nil {
		return fmt.Errorf("forecast.symbols: %w", err)
	}
	if c.BarStore.FetchHours < c.Forecast.WindowSize {
		return fmt.Errorf("bar_store.fetch_hours (%d) must cover forecast.window_size (%d)",
			c.BarStore.FetchHours, c.Forecast.WindowSize)
	}
	return nil
}

// IsSupported reports whether symbol is on the forecast allow-list.
func (f ForecastConfig) IsSupported(symbol string) bool {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, allowed := range f.Symbols {
		if allowed == s {
			return true
		}
	}
	return false
}

func (c *Config) normalize() {
	for i, s := range c.Forecast.Symbols {
		c.Forecast.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
