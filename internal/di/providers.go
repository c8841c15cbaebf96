package di

import (
	"context"
	"fmt"
	"time"

	"CardPull/internal/domain/repository"
	internalrepo "CardPull/internal/repository"
	"CardPull/internal/service/pricesource"
	"CardPull/internal/usecase"
	"CardPull/pkg/cache"
	pkgch "CardPull/pkg/clickhouse"
	"CardPull/pkg/config"
	pkgkafka "CardPull/pkg/kafka"
	applogger "CardPull/pkg/logger"
	"CardPull/pkg/metrics"
	"CardPull/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// pipeline schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.cards (
            item_id String,
            name String,
            rarity String,
            printing String,
            color String,
            set_id String,
            alternate Int32,
            release_date Nullable(DateTime),
            category String
        ) ENGINE = ReplacingMergeTree ORDER BY item_id`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.price_snapshots (
            item_id String,
            created_at DateTime,
            price_primary Nullable(Float64),
            price_pricecharting Nullable(Float64),
            cm_price_avg Nullable(Float64),
            cm_price_low Nullable(Float64),
            cm_avg_7d Nullable(Float64),
            cm_price_trend Nullable(Float64),
            cm_avg_30d Nullable(Float64),
            price_ungraded Nullable(Float64),
            cm_avg_1d Nullable(Float64),
            sellers Nullable(Float64),
            listings Nullable(Float64)
        ) ENGINE = MergeTree ORDER BY (item_id, created_at)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.ml_predictions (
            item_id String,
            as_of DateTime,
            tier LowCardinality(String),
            cluster_id Int32,
            price_now Float64,
            pred_q20_28d Float64,
            pred_q50_28d Float64,
            pred_q80_28d Float64,
            last_price_date DateTime,
            updated_at DateTime
        ) ENGINE = ReplacingMergeTree(updated_at) ORDER BY item_id`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.ml_rankings (
            id String,
            as_of DateTime,
            doc String
        ) ENGINE = ReplacingMergeTree(as_of) ORDER BY id`, db),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled in configuration.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// publisher contract.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideLogger builds the structured logger. When Kafka is enabled,
// error logs are aggregated and shipped to the error-log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return l, nil
}

// ProvideRunNotifier publishes run reports over Kafka, or swallows them
// when Kafka is disabled.
func ProvideRunNotifier(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.RunNotifier {
	if producer == nil {
		return internalrepo.NopNotifier{}
	}
	n := internalrepo.NewKafkaNotifier(producer, cfg.Kafka.ReportTopic)
	n.SetLogger(l)
	return n
}

// ProvideRecorder creates the Prometheus metrics recorder.
func ProvideRecorder() *metrics.Recorder {
	return metrics.New()
}

// ProvideMetrics exposes the recorder through the domain interface.
func ProvideMetrics(rec *metrics.Recorder) repository.Metrics {
	return rec
}

// ProvideCatalogReader creates the card catalog repository.
func ProvideCatalogReader(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CatalogReader {
	r := internalrepo.NewCHCatalog(chClient, cfg.ClickHouse.Database+".cards")
	r.SetLogger(l)
	return r
}

// ProvidePriceStore creates the snapshot repository.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHPrices {
	r := internalrepo.NewCHPrices(chClient, cfg.ClickHouse.Database+".price_snapshots")
	r.SetLogger(l)
	return r
}

// ProvidePriceReader exposes the snapshot repository read side.
func ProvidePriceReader(p *internalrepo.CHPrices) repository.PriceReader { return p }

// ProvideSnapshotWriter exposes the snapshot repository write side.
func ProvideSnapshotWriter(p *internalrepo.CHPrices) repository.SnapshotWriter { return p }

// ProvideMLStore creates the prediction and ranking repository.
func ProvideMLStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHMLStore {
	db := cfg.ClickHouse.Database
	s := internalrepo.NewCHMLStore(chClient, db+".ml_predictions", db+".ml_rankings")
	s.SetLogger(l)
	return s
}

// ProvidePredictionWriter exposes the prediction write side.
func ProvidePredictionWriter(s *internalrepo.CHMLStore) repository.PredictionWriter { return s }

// ProvideRankingWriter exposes the ranking write side.
func ProvideRankingWriter(s *internalrepo.CHMLStore) repository.RankingWriter { return s }

// ProvideArtifactStore creates the filesystem model bundle store.
func ProvideArtifactStore(cfg *config.Config, l *applogger.Logger) repository.ArtifactStore {
	a := internalrepo.NewFSArtifacts(cfg.Artifacts.Dir)
	a.SetLogger(l)
	return a
}

// ProvideRankingCache creates the Redis ranking cache, or nil when
// Redis is disabled (the predictor treats a nil cache as best-effort off).
func ProvideRankingCache(cfg *config.Config, l *applogger.Logger) (repository.RankingCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	c := internalrepo.NewRedisRankingCache(rc)
	c.SetLogger(l)
	return c, nil
}

// ProvidePriceSource opens the configured quote provider wrapped in a
// rate limiter.
func ProvidePriceSource(cfg *config.Config) (pricesource.Source, error) {
	src, err := pricesource.Open(cfg.PriceSource.Provider)
	if err != nil {
		return nil, err
	}
	return pricesource.NewLimited(src, cfg.PriceSource.RatePerSec, cfg.PriceSource.Burst), nil
}

// ProvideTrainer creates the training use case.
func ProvideTrainer(
	cfg *config.Config,
	catalog repository.CatalogReader,
	prices repository.PriceReader,
	artifacts repository.ArtifactStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Trainer {
	return usecase.NewTrainer(cfg, catalog, prices, artifacts, m, l)
}

// ProvidePredictor creates the inference use case.
func ProvidePredictor(
	cfg *config.Config,
	catalog repository.CatalogReader,
	prices repository.PriceReader,
	artifacts repository.ArtifactStore,
	preds repository.PredictionWriter,
	rankings repository.RankingWriter,
	rcache repository.RankingCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Predictor {
	return usecase.NewPredictor(cfg, catalog, prices, artifacts, preds, rankings, rcache, m, l)
}

// ProvideCollector creates the quote collection use case.
func ProvideCollector(
	cfg *config.Config,
	catalog repository.CatalogReader,
	source pricesource.Source,
	sink repository.SnapshotWriter,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Collector {
	return usecase.NewCollector(cfg, catalog, source, sink, m, l)
}

// ProvideApp creates the application runner.
func ProvideApp(
	cfg *config.Config,
	trainer *usecase.Trainer,
	predictor *usecase.Predictor,
	collector *usecase.Collector,
	notifier repository.RunNotifier,
	recorder *metrics.Recorder,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, trainer, predictor, collector, notifier, recorder, chClient, l)
}
