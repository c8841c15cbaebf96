package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
environment: test
clickhouse:
  host: localhost
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse port = %d, want 9000", cfg.ClickHouse.Port)
	}
	if cfg.ClickHouse.Database != "cardpull" {
		t.Errorf("clickhouse database = %q, want cardpull", cfg.ClickHouse.Database)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.ML.HorizonDays != 28 || cfg.ML.MinHistoryDays != 84 {
		t.Errorf("horizon/history = %d/%d", cfg.ML.HorizonDays, cfg.ML.MinHistoryDays)
	}
	if cfg.ML.TierLowMax != 5 || cfg.ML.TierMidMax != 150 {
		t.Errorf("tier bounds = %v/%v", cfg.ML.TierLowMax, cfg.ML.TierMidMax)
	}
	if got, want := cfg.ML.Quantiles, []float64{0.2, 0.5, 0.8}; len(got) != len(want) {
		t.Fatalf("quantiles = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("quantiles[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	}
	if cfg.ML.Regressor.Epochs != 200 || cfg.ML.KMeans.BatchSize != 4096 {
		t.Errorf("model defaults = %d/%d", cfg.ML.Regressor.Epochs, cfg.ML.KMeans.BatchSize)
	}
	if cfg.PriceSource.Provider != "mock" {
		t.Errorf("price source provider = %q, want mock", cfg.PriceSource.Provider)
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: prod
clickhouse:
  host: ch.internal
  port: 9440
  database: prices
ml:
  horizon_days: 14
  quantiles: [0.1, 0.9]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ClickHouse.Port != 9440 || cfg.ClickHouse.Database != "prices" {
		t.Errorf("clickhouse = %d/%q", cfg.ClickHouse.Port, cfg.ClickHouse.Database)
	}
	if cfg.ML.HorizonDays != 14 {
		t.Errorf("horizon_days = %d, want 14", cfg.ML.HorizonDays)
	}
	if len(cfg.ML.Quantiles) != 2 || cfg.ML.Quantiles[0] != 0.1 {
		t.Errorf("quantiles = %v", cfg.ML.Quantiles)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing host",
			yaml: "environment: test\n",
			want: "validate config",
		},
		{
			name: "inverted tiers",
			yaml: minimalYAML + "ml:\n  tier_low_max: 200\n  tier_mid_max: 150\n",
			want: "tier_low_max",
		},
		{
			name: "inverted clamps",
			yaml: minimalYAML + "ml:\n  target_clamp_low: 6\n  target_clamp_high: 5\n",
			want: "target_clamp_low",
		},
		{
			name: "quantile out of range",
			yaml: minimalYAML + "ml:\n  quantiles: [0.5, 1.5]\n",
			want: "quantiles",
		},
		{
			name: "kafka enabled without brokers",
			yaml: minimalYAML + "kafka:\n  enabled: true\n",
			want: "kafka.brokers",
		},
		{
			name: "metrics enabled without gateway",
			yaml: minimalYAML + "metrics:\n  enabled: true\n",
			want: "push_gateway",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "ch.override")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("REDIS_ADDR", "redis.override:6380")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("CARD_CATEGORY", "Sealed")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}

	if cfg.ClickHouse.Host != "ch.override" || cfg.ClickHouse.Port != 9440 {
		t.Errorf("clickhouse = %s:%d", cfg.ClickHouse.Host, cfg.ClickHouse.Port)
	}
	if cfg.Redis.Host != "redis.override" || cfg.Redis.Port != 6380 {
		t.Errorf("redis = %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Errorf("kafka brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Catalog.Category != "Sealed" {
		t.Errorf("category = %q", cfg.Catalog.Category)
	}
}

func TestLoadWithEnvBadPortKeepsDefault(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.override:not-a-port")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Redis.Host != "redis.override" || cfg.Redis.Port != 6379 {
		t.Errorf("redis = %s:%d, want redis.override:6379", cfg.Redis.Host, cfg.Redis.Port)
	}
}
