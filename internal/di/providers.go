package di

import (
	"context"
	"fmt"
	"net"
	"time"

	drepo "MemePulse/internal/domain/repository"
	"MemePulse/internal/handler/api"
	"MemePulse/internal/handler/ws"
	internalrepo "MemePulse/internal/repository"
	"MemePulse/internal/scheduler"
	"MemePulse/internal/service/analytics"
	"MemePulse/internal/service/providers"
	"MemePulse/internal/service/ratelimit"
	"MemePulse/internal/usecase"
	pkgcache "MemePulse/pkg/cache"
	pkgch "MemePulse/pkg/clickhouse"
	"MemePulse/pkg/config"
	pkgkafka "MemePulse/pkg/kafka"
	"MemePulse/pkg/logger"
	"MemePulse/pkg/metrics"
	"MemePulse/pkg/server"
	"MemePulse/pkg/util"
)

const (
	alertsTable = "meme_alerts"
	hypeTable   = "ticker_hype"
)

// ProvideLogger creates the application logger. Production gets JSON,
// everything else console.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates the Prometheus recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) drepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// alert and hype tables.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout.Std(), cfg.ClickHouse.ReadTimeout.Std(), cfg.ClickHouse.WriteTimeout.Std()),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime.Std()),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		internalrepo.AlertSchema(cfg.ClickHouse.Database + "." + alertsTable),
		internalrepo.HypeSchema(cfg.ClickHouse.Database + "." + hypeTable),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout.Std()),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout.Std(), cfg.Kafka.Producer.ReadTimeout.Std()),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin.Std(), cfg.Kafka.Consumer.BackoffMax.Std()),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache selects the response cache backend: Redis-fronted layered
// cache when enabled, in-process memory cache otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(util.ParseIntDefault(portStr, 6379)),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideYahooClient creates the shared Yahoo market data client.
func ProvideYahooClient(cfg *config.Config) *providers.YahooClient {
	opts := []providers.YahooOption{}
	if cfg.Providers.Yahoo.OptionsURL != "" {
		opts = append(opts, providers.WithOptionsURL(cfg.Providers.Yahoo.OptionsURL))
	}
	if cfg.Providers.Yahoo.ChartURL != "" {
		opts = append(opts, providers.WithChartURL(cfg.Providers.Yahoo.ChartURL))
	}
	return providers.NewYahooClient(cfg.Providers.Yahoo.Timeout.Std(), opts...)
}

// ProvideOptionsProvider exposes the Yahoo client as the options source.
func ProvideOptionsProvider(yc *providers.YahooClient) drepo.OptionsProvider { return yc }

// ProvideHistoryProvider exposes the Yahoo client as the history source.
func ProvideHistoryProvider(yc *providers.YahooClient) drepo.HistoryProvider { return yc }

// ProvideTrendingProvider creates the social trending source.
func ProvideTrendingProvider(cfg *config.Config) drepo.TrendingProvider {
	return providers.NewApeWisdomClient(cfg.Providers.ApeWisdom.URL, cfg.Providers.ApeWisdom.Timeout.Std())
}

// ProvideNewsProvider creates the company news source.
func ProvideNewsProvider(cfg *config.Config) drepo.NewsProvider {
	return providers.NewFinnhubClient(cfg.Providers.Finnhub.BaseURL, cfg.Providers.Finnhub.APIKey, cfg.Providers.Finnhub.Timeout.Std())
}

// ProvideSentimentScorer creates the headline sentiment client.
func ProvideSentimentScorer(cfg *config.Config) drepo.SentimentScorer {
	return analytics.NewHTTPSentimentScorer(cfg.Analytics.SentimentServiceURL, cfg.Analytics.Timeout.Std())
}

// ProvideAlertStore creates ClickHouse-backed alert storage.
func ProvideAlertStore(chClient *pkgch.Client, cfg *config.Config) drepo.AlertStore {
	return internalrepo.NewClickHouseAlertStore(chClient.DB(), cfg.ClickHouse.Database+"."+alertsTable)
}

// ProvideHypeStore creates ClickHouse-backed hype storage.
func ProvideHypeStore(chClient *pkgch.Client, cfg *config.Config) drepo.HypeStore {
	return internalrepo.NewClickHouseHypeStore(chClient.DB(), cfg.ClickHouse.Database+"."+hypeTable)
}

// ProvideAlertPublisher creates the Kafka alert publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic)
}

// ProvideLimiter creates the shared token-bucket limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideDetector creates the signal detector.
func ProvideDetector(
	options drepo.OptionsProvider,
	history drepo.HistoryProvider,
	trending drepo.TrendingProvider,
	cfg *config.Config,
	l *logger.Logger,
	m drepo.Metrics,
) *usecase.Detector {
	return usecase.NewDetector(options, history, trending, usecase.DetectorConfig{
		OptionsCacheTTL: cfg.Detector.OptionsCacheTTL.Std(),
		SocialCacheTTL:  cfg.Detector.SocialCacheTTL.Std(),
	}, l, m)
}

// ProvideScanner creates the watchlist scanner.
func ProvideScanner(
	detector *usecase.Detector,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	l *logger.Logger,
	m drepo.Metrics,
) *usecase.Scanner {
	return usecase.NewScanner(detector, limiter, cfg.Detector.ScanRate, l, m)
}

// ProvideAlertProcessor creates the backend router for scan results.
func ProvideAlertProcessor(
	pub drepo.AlertPublisher,
	store drepo.AlertStore,
	m drepo.Metrics,
	cfg *config.Config,
) *usecase.AlertProcessor {
	return usecase.NewAlertProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideKafkaAlertsHandler registers the consumer-side persistence handler.
func ProvideKafkaAlertsHandler(store drepo.AlertStore, m drepo.Metrics, cfg *config.Config) *usecase.KafkaAlertsHandler {
	return usecase.NewKafkaAlertsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideHypeUseCase creates the hype pipeline.
func ProvideHypeUseCase(
	news drepo.NewsProvider,
	sentiment drepo.SentimentScorer,
	store drepo.HypeStore,
	cache pkgcache.Service,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	l *logger.Logger,
	m drepo.Metrics,
) *usecase.HypeUseCase {
	return usecase.NewHypeUseCase(news, sentiment, store, cache, limiter, usecase.HypeConfig{
		Stocks:     cfg.Hype.Stocks,
		Cryptos:    cfg.Hype.Cryptos,
		CacheTTL:   cfg.Hype.CacheTTL.Std(),
		WindowDays: cfg.Providers.Finnhub.NewsWindowDays,
	}, l, m)
}

// ProvideHub creates the websocket fan-out hub.
func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	l *logger.Logger,
	detector *usecase.Detector,
	scanner *usecase.Scanner,
	processor *usecase.AlertProcessor,
	hype *usecase.HypeUseCase,
	hub *ws.Hub,
	cfg *config.Config,
) *api.AlertsHandler {
	return api.NewAlertsHandler(l, detector, scanner, processor, hype, hub, cfg)
}

// ProvideScheduler creates the periodic job runner.
func ProvideScheduler(
	scanner *usecase.Scanner,
	processor *usecase.AlertProcessor,
	hype *usecase.HypeUseCase,
	cfg *config.Config,
	l *logger.Logger,
) *scheduler.Scheduler {
	return scheduler.New(scanner, processor, hype, cfg, l)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler *api.AlertsHandler,
	processor *usecase.AlertProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaAlertsHandler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, handler, processor, consumer, kh, sched, chClient)
}
