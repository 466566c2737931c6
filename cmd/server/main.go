package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	decisionmetrics "docverify/internal/decision/metrics"
	"docverify/internal/evidence/application"
	appstore "docverify/internal/evidence/application/store"
	"docverify/internal/evidence/ocr"
	ocrmetrics "docverify/internal/evidence/ocr/metrics"
	"docverify/internal/evidence/parser"
	httpapi "docverify/internal/http"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
	"docverify/internal/platform/httpserver"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/metrics"
	"docverify/internal/platform/postgres"
	"docverify/internal/platform/redis"
	"docverify/internal/ratelimit"
	ratelimitmetrics "docverify/internal/ratelimit/metrics"
	ratelimitmw "docverify/internal/ratelimit/middleware"
	"docverify/internal/ratelimit/models"
	"docverify/internal/verification"
	"docverify/internal/verification/adapters"
	"docverify/internal/verification/handler"
	"docverify/internal/verification/ports"
	statusstore "docverify/internal/verification/store"
	"docverify/pkg/platform/audit"
	kafkapub "docverify/pkg/platform/audit/publishers/kafka"
	natspub "docverify/pkg/platform/audit/publishers/nats"
	"docverify/pkg/platform/audit/publishers/ops"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/platform/audit/worker"
	"docverify/pkg/platform/circuit"
)

const limiterPruneInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docverify: %v\n", err)
		os.Exit(1)
	}
}

// run wires high-level dependencies and owns the process lifecycle. Business
// logic lives in the internal service packages.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set AUTH_JWT_SIGNING_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httpapi.HealthCheck{}

	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		health["postgres"] = db.PingContext
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
	}

	applications, statuses, err := buildStores(ctx, cfg, db, redisClient, log)
	if err != nil {
		return err
	}

	extractor := buildExtractor(cfg, log)

	rules := parser.DefaultRules()
	if cfg.Rules.File != "" {
		if rules, err = parser.LoadRules(cfg.Rules.File, rules); err != nil {
			return fmt.Errorf("load parser rules: %w", err)
		}
		log.Info("loaded parser rules", "file", cfg.Rules.File)
	}

	sink, err := buildEventSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	events := worker.NewWorker(
		ops.New(sink,
			ops.WithLogger(log),
			ops.WithMetrics(ops.NewMetrics()),
			ops.WithTimeout(cfg.Events.PublishTimeout),
		),
		cfg.Events.Buffer,
		worker.WithLogger(log),
	)

	service := verification.NewService(
		extractor,
		parser.New(parser.WithRules(rules), parser.WithLogger(log)),
		applications,
		statuses,
		verification.WithEventPublisher(events),
		verification.WithPolicy(cfg.Policy.Domain()),
		verification.WithMetrics(decisionmetrics.New()),
		verification.WithLogger(log),
	)

	limiter := ratelimit.New(
		models.Limit{Every: cfg.RateLimit.Every, Burst: cfg.RateLimit.Burst},
		ratelimit.WithMetrics(ratelimitmetrics.New()),
	)
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           log,
		Metrics:          metrics.New(),
		Validator:        jwttoken.NewJWTServiceAdapter(jwtService),
		RateLimit:        ratelimitmw.New(limiter, log),
		MetricsTokenHash: cfg.Server.MetricsTokenHash,
		Health:           health,
	}, handler.New(service, log, cfg.Server.DocumentRoot))
	srv := httpserver.New(cfg.Server.Addr, router)

	// The event worker outlives the server so events from in-flight requests
	// are still delivered during shutdown.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	workerDone := make(chan error, 1)
	go func() { workerDone <- events.Run(workerCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return limiter.Run(gctx, limiterPruneInterval)
	})
	g.Go(func() error {
		log.Info("starting docverify", "addr", cfg.Server.Addr, "events_backend", cfg.Events.Backend)
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	serveErr := g.Wait()

	stopWorker()
	<-workerDone
	if err := events.Close(); err != nil {
		log.Warn("failed to close event sink", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	log.Info("docverify stopped")
	return nil
}

func buildStores(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	redisClient *redis.Client,
	log *slog.Logger,
) (ports.ApplicationStore, ports.StatusStore, error) {
	var (
		source   application.Source
		statuses ports.StatusStore
	)
	if db != nil {
		source = appstore.NewPostgresStore(db, cfg.Policy.DateLayout)
		statuses = statusstore.NewPostgresStore(db)
	} else {
		memory := appstore.NewInMemoryStore(0)
		if cfg.Database.SeedFile != "" {
			n, err := appstore.LoadSeed(ctx, cfg.Database.SeedFile, memory, cfg.Policy.DateLayout)
			if err != nil {
				return nil, nil, err
			}
			log.Info("seeded in-memory applications", "count", n)
		}
		log.Warn("no database configured; using in-memory stores")
		source = memory
		statuses = statusstore.NewInMemoryStore()
	}

	opts := []application.Option{application.WithLogger(log)}
	if redisClient != nil {
		opts = append(opts, application.WithCache(appstore.NewRedisCache(redisClient.Client, cfg.Redis.CacheTTL)))
	}
	return application.NewService(source, opts...), statuses, nil
}

func buildExtractor(cfg *config.Config, log *slog.Logger) ports.TextExtractor {
	engine := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Tesseract:   cfg.OCR.TesseractPath,
		Pdftoppm:    cfg.OCR.PdftoppmPath,
		TessdataDir: cfg.OCR.TessdataDir,
		DPI:         cfg.OCR.DPI,
	}, nil, log)
	extractor := ocr.New(engine,
		ocr.WithLanguage(cfg.OCR.Language),
		ocr.WithMaxConcurrent(cfg.OCR.MaxConcurrent),
		ocr.WithRunTimeout(cfg.OCR.RunTimeout),
		ocr.WithBreaker(circuit.New("ocr-engine",
			circuit.WithFailureThreshold(cfg.OCR.FailureThreshold),
			circuit.WithCooldown(cfg.OCR.Cooldown),
		)),
		ocr.WithMetrics(ocrmetrics.New()),
		ocr.WithLogger(log),
	)
	return adapters.NewOCRAdapter(extractor)
}

func buildEventSink(ctx context.Context, cfg *config.Config, log *slog.Logger) (audit.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsBackendKafka:
		k := cfg.Events.Kafka
		pub, err := kafkapub.New(ctx, kafkapub.Config{
			Brokers:           k.Brokers,
			Topic:             k.Topic,
			ClientID:          k.ClientID,
			CreateTopic:       k.CreateTopic,
			Partitions:        k.Partitions,
			ReplicationFactor: k.ReplicationFactor,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		return pub, nil
	case config.EventsBackendNATS:
		pub, err := natspub.Connect(cfg.Events.NATS.URL, cfg.Events.NATS.SubjectPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		return pub, nil
	default:
		return auditmemory.NewInMemoryStore(), nil
	}
}
