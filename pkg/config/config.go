package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CardPull/pkg/util"
)

// Config is the immutable process configuration. It is constructed once
// at startup and passed by reference into each pipeline stage; nothing
// reads ambient environment state mid-pipeline.
type Config struct {
	Environment string `yaml:"environment" validate:"required"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"cardpull"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"5m"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"cardpull"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		ReportTopic  string        `yaml:"report_topic" default:"cardpull.run_reports"`
		LogTopic     string        `yaml:"log_topic" default:"cardpull.error_logs"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`

	Metrics struct {
		Enabled     bool   `yaml:"enabled"`
		PushGateway string `yaml:"push_gateway"`
		JobName     string `yaml:"job_name" default:"cardpull"`
	} `yaml:"metrics"`

	Artifacts struct {
		Dir string `yaml:"dir" default:"./artifacts" validate:"required"`
	} `yaml:"artifacts"`

	Catalog struct {
		Category string `yaml:"category" default:"Cards"`
	} `yaml:"catalog"`

	PriceSource struct {
		Provider   string  `yaml:"provider" default:"mock"`
		RatePerSec float64 `yaml:"rate_per_sec" default:"4"`
		Burst      float64 `yaml:"burst" default:"8"`
	} `yaml:"price_source"`

	ML ML `yaml:"ml"`
}

// ML collects every modeling constant as explicit configuration.
// The clamp bounds are deliberate robustness policy carried over from
// production tuning, not derived statistical quantities.
type ML struct {
	HorizonDays    int   `yaml:"horizon_days" default:"28" validate:"gt=0"`
	MinHistoryDays int   `yaml:"min_history_days" default:"84" validate:"gt=0"`
	NClusters      int   `yaml:"n_clusters" default:"30" validate:"gt=0"`
	Seed           int64 `yaml:"seed" default:"42"`

	TierLowMax float64 `yaml:"tier_low_max" default:"5"`
	TierMidMax float64 `yaml:"tier_mid_max" default:"150"`

	Quantiles []float64 `yaml:"quantiles"`

	WinRet1 int `yaml:"win_ret_1" default:"7"`
	WinRet2 int `yaml:"win_ret_2" default:"14"`
	WinRet3 int `yaml:"win_ret_3" default:"28"`
	WinRet4 int `yaml:"win_ret_4" default:"56"`
	WinVol  int `yaml:"win_vol" default:"28"`
	WinMom  int `yaml:"win_mom" default:"14"`
	WinLiq  int `yaml:"win_liq" default:"28"`

	TargetClampLow  float64 `yaml:"target_clamp_low" default:"-0.95"`
	TargetClampHigh float64 `yaml:"target_clamp_high" default:"5.0"`
	ShockClampHigh  float64 `yaml:"shock_clamp_high" default:"50"`

	MinTierRows int `yaml:"min_tier_rows" default:"200" validate:"gt=0"`
	TopN        int `yaml:"top_n" default:"120" validate:"gt=0"`

	Regressor struct {
		Epochs       int     `yaml:"epochs" default:"200"`
		LearningRate float64 `yaml:"learning_rate" default:"0.05"`
		LRDecay      float64 `yaml:"lr_decay" default:"0.01"`
		L2           float64 `yaml:"l2" default:"0.001"`
	} `yaml:"regressor"`

	KMeans struct {
		BatchSize int `yaml:"batch_size" default:"4096"`
		MaxIter   int `yaml:"max_iter" default:"100"`
	} `yaml:"kmeans"`
}

var validate = validator.New()

// Load reads the YAML configuration file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if len(c.ML.Quantiles) == 0 {
		c.ML.Quantiles = []float64{0.2, 0.5, 0.8}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. .env.local and .env are loaded first (missing files are fine).
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		c.ClickHouse.Port = util.ParseIntDefault(v, c.ClickHouse.Port)
	}
	if v := os.Getenv("CLICKHOUSE_DATABASE"); v != "" {
		c.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			c.Redis.Port = util.ParseIntDefault(port, c.Redis.Port)
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv("CARD_CATEGORY"); v != "" {
		c.Catalog.Category = v
	}
	if v := os.Getenv("PROVIDERS_MODULE"); v != "" {
		c.PriceSource.Provider = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.ML.TierLowMax >= c.ML.TierMidMax {
		return fmt.Errorf("ml.tier_low_max must be below ml.tier_mid_max")
	}
	if c.ML.TargetClampLow >= c.ML.TargetClampHigh {
		return fmt.Errorf("ml.target_clamp_low must be below ml.target_clamp_high")
	}
	for _, q := range c.ML.Quantiles {
		if q <= 0 || q >= 1 {
			return fmt.Errorf("ml.quantiles must lie in (0, 1), got %v", q)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.PushGateway == "" {
		return fmt.Errorf("metrics.push_gateway is required when metrics are enabled")
	}
	return nil
}
