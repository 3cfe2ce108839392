package di

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"

	domrepo "Karion/internal/domain/repository"
	domsvc "Karion/internal/domain/service"
	"Karion/internal/handler/api"
	"Karion/internal/repository"
	"Karion/internal/service/breaker"
	"Karion/internal/service/cache"
	"Karion/internal/service/calendar"
	"Karion/internal/service/momentum"
	"Karion/internal/service/ratelimit"
	"Karion/internal/service/snapshot"
	"Karion/internal/service/stream"
	"Karion/internal/service/yahoo"
	"Karion/internal/services/analytics"
	"Karion/internal/usecase"
	pkgch "Karion/pkg/clickhouse"
	"Karion/pkg/config"
	xhttp "Karion/pkg/http"
	pkgkafka "Karion/pkg/kafka"
	applogger "Karion/pkg/logger"
	"Karion/pkg/metrics"
	"Karion/pkg/server"
)

// ProviderSet lists every constructor used by InitializeApp.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),
	ProvideClickHouseClient,
	ProvideMarketDataProvider,
	ProvideBreaker,
	ProvideRedisCache,
	ProvideBytesCache,
	ProvideRandomSource,
	ProvideSnapshotCache,
	ProvideCalendar,
	ProvideMomentumStore,
	ProvideMarketUseCase,
	ProvideSimulationUseCase,
	ProvidePositioningUseCase,
	ProvideHub,
	ProvideKafkaProducer,
	ProvideOverviewJob,
	ProvideKafkaConsumer,
	ProvideHTTPServer,
	ProvideApp,
)

func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideClickHouseClient connects only when ClickHouse is the market data provider.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Market.Provider != "clickhouse" {
		return nil, nil
	}
	ch := cfg.ClickHouse
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, repository.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func ProvideMarketDataProvider(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.MarketDataProvider {
	if ch != nil {
		return repository.NewCHBarStore(ch, l)
	}
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Market.BaseURL),
		yahoo.WithTimeout(cfg.Market.Timeout),
		yahoo.WithLogger(l),
	)
}

// ProvideBreaker returns nil when the breaker is disabled; the snapshot cache then calls the provider directly.
func ProvideBreaker(cfg *config.Config, l *applogger.Logger) *breaker.Breaker {
	bc := cfg.Market.Breaker
	if !bc.Enabled {
		return nil
	}
	log := l.Component("breaker")
	return breaker.New("market-data", breaker.Config{
		Interval:            bc.Interval,
		Timeout:             bc.Timeout,
		ConsecutiveFailures: bc.ConsecutiveFailures,
		OnStateChange: func(name, from, to string) {
			log.Warn("state change", applogger.String("name", name), applogger.String("from", from), applogger.String("to", to))
		},
	})
}

func ProvideRedisCache(cfg *config.Config) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	return cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
}

// ProvideBytesCache fronts Redis with a short-lived local layer, or runs in-process only.
func ProvideBytesCache(r *cache.RedisCache) cache.BytesCache {
	if r != nil {
		return cache.NewLayered(cache.NewTTLCache(), r, 30*time.Second)
	}
	return cache.NewTTLCache()
}

func ProvideRandomSource(cfg *config.Config) domsvc.RandomSource {
	return analytics.NewRandomSource(cfg.Analytics.Seed)
}

func ProvideSnapshotCache(
	cfg *config.Config,
	provider domrepo.MarketDataProvider,
	rng domsvc.RandomSource,
	b *breaker.Breaker,
	r *cache.RedisCache,
	m domrepo.Metrics,
	l *applogger.Logger,
) *snapshot.Cache {
	sc := snapshot.DefaultConfig()
	sc.VolatilitySymbol = cfg.Market.VolatilitySymbol
	sc.Period = cfg.Market.Period
	sc.Interval = cfg.Market.Interval
	sc.VolatilityTTL = cfg.Market.VolatilityTTL
	sc.PriceTTL = cfg.Market.PriceTTL
	if cfg.Market.Timeout > 0 {
		sc.FetchTimeout = cfg.Market.Timeout
	}
	for sym, ticker := range cfg.Market.Symbols {
		sc.PriceSymbols[sym] = ticker
	}

	opts := []snapshot.Option{snapshot.WithMetrics(m), snapshot.WithLogger(l)}
	if b != nil {
		opts = append(opts, snapshot.WithBreaker(b))
	}
	// only a shared cache is worth mirroring into; the local slots already cover one replica
	if r != nil {
		opts = append(opts, snapshot.WithMirror(r))
	}
	return snapshot.New(sc, provider, rng, opts...)
}

func ProvideCalendar() *calendar.Calendar {
	return calendar.New(calendar.DefaultEvents)
}

func ProvideMomentumStore() *momentum.Store {
	return momentum.NewStore()
}

func ProvideMarketUseCase(snap *snapshot.Cache, rng domsvc.RandomSource, store *momentum.Store, cal *calendar.Calendar) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(
		snap,
		analytics.NewScoringModel(rng, store),
		analytics.NewRiskAggregator(),
		cal,
	)
}

func ProvideSimulationUseCase(rng domsvc.RandomSource, m domrepo.Metrics) *usecase.SimulationUseCase {
	return usecase.NewSimulationUseCase(analytics.NewSimulator(rng), m)
}

func ProvidePositioningUseCase(cfg *config.Config, rng domsvc.RandomSource, c cache.BytesCache, l *applogger.Logger) *usecase.PositioningUseCase {
	return usecase.NewPositioningUseCase(analytics.NewPositioningModel(rng), c, cfg.Analytics.PositioningTTL, l)
}

func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l)
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, nil
}

// ProvideOverviewJob fans overviews out to the stream hub and, when enabled, to Kafka.
func ProvideOverviewJob(
	cfg *config.Config,
	market *usecase.MarketUseCase,
	hub *stream.Hub,
	producer *pkgkafka.Producer,
	m *metrics.Recorder,
	l *applogger.Logger,
) *usecase.OverviewJob {
	channels := []usecase.Channel{
		{Name: "stream", Publisher: &api.RoundedPublisher{Next: hub}, Live: true},
	}
	if producer != nil {
		channels = append(channels, usecase.Channel{
			Name:      "kafka",
			Publisher: repository.NewKafkaOverviewPublisher(producer, cfg.Kafka.AnalysesTopic),
		})
	}
	return usecase.NewOverviewJob(market, channels, cfg.Analytics.Schedule, cfg.Analytics.StreamInterval, m, l)
}

// ProvideKafkaConsumer subscribes the calendar to its update topic. Nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, cal *calendar.Calendar, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	c, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	c.RegisterHandler(calendar.NewUpdateHandler(cfg.Kafka.CalendarTopic, cal, l))
	return c, nil
}

func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	market *usecase.MarketUseCase,
	sim *usecase.SimulationUseCase,
	pos *usecase.PositioningUseCase,
	hub *stream.Hub,
	job *usecase.OverviewJob,
	provider domrepo.MarketDataProvider,
	b *breaker.Breaker,
	store *momentum.Store,
) *xhttp.Server {
	health := api.Health{Provider: provider.Name(), Momentum: store.Snapshot}
	if b != nil {
		health.Breaker = b.State
	}

	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithMiddleware(ratelimit.Middleware(ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst))))
	}

	return xhttp.NewServer(l, []xhttp.Handler{
		api.NewMarketEchoHandler(l, market, health),
		api.NewEngineEchoHandler(l, sim, pos),
		api.NewStreamEchoHandler(l, hub, job),
	}, opts...)
}

// ProvideApp assembles the lifecycle. Optional parts are only registered when configured.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	job *usecase.OverviewJob,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	r *cache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	app := server.New(l, cfg.Server.ShutdownTimeout).
		Add("overview_job", job).
		Add("http", srv)
	if consumer != nil {
		app.Add("kafka_consumer", consumer)
	}

	app.OnClose("stream", hub)
	if producer != nil {
		app.OnClose("kafka_producer", producer)
	}
	if r != nil {
		app.OnClose("redis", r)
	}
	if ch != nil {
		app.OnClose("clickhouse", ch)
	}
	return app
}
