package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"OddsFlow/internal/domain/repository"
	"OddsFlow/internal/handler/api"
	internalrepo "OddsFlow/internal/repository"
	icache "OddsFlow/internal/service/cache"
	"OddsFlow/internal/service/oddsapi"
	"OddsFlow/internal/usecase"
	pkgch "OddsFlow/pkg/clickhouse"
	"OddsFlow/pkg/config"
	pkgkafka "OddsFlow/pkg/kafka"
	applogger "OddsFlow/pkg/logger"
	"OddsFlow/pkg/metrics"
	"OddsFlow/pkg/queue"
	"OddsFlow/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and verifies
// connectivity before anything downstream uses it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis client.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates the Kafka producer for run summaries.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideQuoteSource creates the odds API client.
func ProvideQuoteSource(cfg *config.Config) repository.QuoteSource {
	return oddsapi.New(
		cfg.OddsAPI.APIKey,
		cfg.OddsAPI.BaseURL,
		cfg.OddsAPI.Regions,
		cfg.OddsAPI.Bookmaker,
		cfg.OddsAPI.Timeout,
		cfg.OddsAPI.RequestsPerSec,
	)
}

// ProvideRawStore creates the bronze store.
func ProvideRawStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.RawStore {
	s := internalrepo.NewClickHouseRawStore(chClient, cfg.ClickHouse.Database, cfg.Pipeline.InsertChunkSize)
	s.SetLogger(l)
	return s
}

// ProvideMetricsStore creates the silver and gold store.
func ProvideMetricsStore(chClient *pkgch.Client, cfg *config.Config) repository.MetricsStore {
	return internalrepo.NewClickHouseMetricsStore(chClient, cfg.ClickHouse.Database, cfg.Pipeline.InsertChunkSize)
}

// ProvideCursorStore creates the Redis watermark store.
func ProvideCursorStore(rdb *redis.Client, cfg *config.Config) repository.CursorStore {
	return internalrepo.NewRedisCursorStore(rdb, cfg.Redis.KeyPrefix)
}

// ProvideNotifier creates the Kafka run-summary notifier.
func ProvideNotifier(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.Notifier {
	return internalrepo.NewKafkaNotifier(producer, cfg.Kafka.Topic, l)
}

// ProvideExtractor creates the extraction stage.
func ProvideExtractor(source repository.QuoteSource, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Extractor {
	return usecase.NewExtractor(source, cfg.OddsAPI.Leagues, cfg.OddsAPI.Bookmaker, m, l)
}

// ProvideLoader creates the load stage.
func ProvideLoader(raw repository.RawStore, m repository.Metrics, l *applogger.Logger) *usecase.Loader {
	return usecase.NewLoader(raw, m, l)
}

// ProvideTransformer creates the incremental transform stage.
func ProvideTransformer(raw repository.RawStore, store repository.MetricsStore, cursor repository.CursorStore,
	cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Transformer {
	return usecase.NewTransformer(raw, store, cursor, cfg.OddsAPI.Bookmaker, cfg.Pipeline.HardFailRatio, m, l)
}

// ProvideViewBuilder creates the gold view stage.
func ProvideViewBuilder(store repository.MetricsStore, m repository.Metrics, l *applogger.Logger) *usecase.ViewBuilder {
	return usecase.NewViewBuilder(store, m, l)
}

// ProvidePipeline assembles the stage orchestrator.
func ProvidePipeline(extractor *usecase.Extractor, loader *usecase.Loader, transform *usecase.Transformer,
	views *usecase.ViewBuilder, notifier repository.Notifier, m repository.Metrics, l *applogger.Logger) *usecase.Pipeline {
	return usecase.NewPipeline(extractor, loader, transform, views, notifier, m, l)
}

// ProvideRunQueue creates the run-request queue and registers the
// pipeline job on it.
func ProvideRunQueue(l *applogger.Logger, rdb *redis.Client, cfg *config.Config, pipe *usecase.Pipeline) *queue.RedisQueue {
	q := queue.NewRedisQueue(l, queue.Config{Workers: 1, RetryLimit: 1}, rdb, cfg.Redis.KeyPrefix)
	q.RegisterJob(usecase.NewRunJob(pipe, l))
	return q
}

// ProvideOpsHandler creates the read-side HTTP handler.
func ProvideOpsHandler(l *applogger.Logger, raw repository.RawStore, store repository.MetricsStore,
	cursor repository.CursorStore, source repository.QuoteSource, rdb *redis.Client,
	cfg *config.Config, runs *queue.RedisQueue) *api.OpsHandler {
	var c icache.BytesCache
	if cfg.Redis.Addr != "" {
		c = icache.NewRedis(rdb, cfg.Redis.KeyPrefix)
	} else {
		c = icache.NewMemory()
	}
	return api.NewOpsHandler(l, raw, store, cursor, source, c, runs)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, pipe *usecase.Pipeline,
	raw repository.RawStore, store repository.MetricsStore,
	handler *api.OpsHandler, runs *queue.RedisQueue,
	chClient *pkgch.Client, rdb *redis.Client, notifier repository.Notifier) *server.App {
	return server.New(cfg, l, pipe, raw, store, handler, runs, chClient, rdb, notifier)
}
