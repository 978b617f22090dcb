// cmd/verification-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"verification-workflow/internal/auditindex"
	"verification-workflow/internal/certificate"
	"verification-workflow/internal/common/auth"
	commonaws "verification-workflow/internal/common/aws"
	"verification-workflow/internal/common/camunda"
	"verification-workflow/internal/common/config"
	"verification-workflow/internal/common/database"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/observability"
	"verification-workflow/internal/forms"
	"verification-workflow/internal/notification"
	"verification-workflow/internal/stats"
	"verification-workflow/internal/storage/cache"
	"verification-workflow/internal/storage/postgres"
	httptransport "verification-workflow/internal/transport/http"
	"verification-workflow/internal/workflow"
	"verification-workflow/pkg/registry"

	na "verification-workflow/internal/workers/application/notify-applicant"
	sa "verification-workflow/internal/workers/application/submit-application"
	rvd "verification-workflow/internal/workers/verification/record-verifier-decision"
	rgc "verification-workflow/internal/workers/verification/regenerate-certificate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting verification server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, observability.Options{
		TracingEnabled: cfg.Observability.TracingEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	store := postgres.New(pg)
	if err := store.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	readiness := map[string]func(context.Context) error{
		"postgres": pg.Ping,
	}

	// --- Init Redis with retry ---
	var redisClient *redis.Client
	if cfg.Database.Redis.Enabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		redisClient = rdb.Client
		readiness["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	cacheTTL := config.GetDuration(cfg.Stats.CacheTTL)
	directory := cache.NewDirectory(store, redisClient, cacheTTL, log)
	aggregator := stats.NewAggregator(store, redisClient, cacheTTL, log)

	// --- Document types and certificates ---
	reg, err := loadRegistry(cfg.Certificate.RegistryPath)
	if err != nil {
		zapLog.Fatal("document type registry invalid", zap.Error(err))
	}
	renderer := certificate.NewPDFRenderer(reg, cfg.Certificate.IssuerName)
	trigger := certificate.NewTrigger(renderer, store, directory,
		config.GetDuration(cfg.Certificate.RenderTimeout), log)

	hooks := []workflow.CommitHook{aggregator}

	// --- Init Elasticsearch with retry ---
	var searcher workflow.AuditSearcher
	if cfg.Database.Elasticsearch.Enabled && cfg.Audit.MirrorEnabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := esClient.Ping(ctx); err != nil {
				return err
			}
			return esClient.EnsureIndex(ctx, cfg.Audit.Index, auditindex.Mapping)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := auditindex.New(esClient.Client, cfg.Audit.Index, log)
		hooks = append(hooks, index)
		searcher = index
		readiness["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Notifications ---
	notifier, err := newNotifier(ctx, cfg, directory, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}
	hooks = append(hooks, notifier)

	// --- Zeebe ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		hooks = append(hooks, camunda.NewDecisionPublisher(zeebe))
		readiness["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")
	}

	svc, err := workflow.NewService(workflow.Dependencies{
		Store:         store,
		Tx:            store,
		Directory:     directory,
		Audit:         store,
		AuditLog:      store,
		AuditSearch:   searcher,
		Trigger:       trigger,
		Forms:         forms.NewValidator(reg),
		Stats:         aggregator,
		Hooks:         hooks,
		Observability: obs,
	}, log)
	if err != nil {
		zapLog.Fatal("workflow init failed", zap.Error(err))
	}

	// --- Workers ---
	var workers []worker.JobWorker
	if zeebe != nil {
		workers = startWorkers(cfg, zeebe, svc, notifier, obs, log)
	}

	// --- HTTP ---
	authenticator, err := auth.NewFromConfig(cfg.Auth)
	if err != nil {
		zapLog.Fatal("authenticator init failed", zap.Error(err))
	}
	handler := httptransport.NewHandler(svc, authenticator, log, config.GetDuration(cfg.Server.RequestTimeout))
	router := handler.Router(func(r chi.Router) {
		r.Get("/health", httptransport.Health)
		r.Get("/ready", httptransport.Ready(readiness))
		if cfg.Observability.MetricsEnabled {
			r.Handle("/metrics", promhttp.Handler())
		}
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zapLog.Info("Shutting down...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	camunda.StopWorkers(workers, log)
	zapLog.Info("Shutdown complete")
}

func loadRegistry(path string) (*registry.DocumentTypeRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func newNotifier(ctx context.Context, cfg *config.Config, users notification.UserLookup, log logger.Logger) (*notification.Notifier, error) {
	nc := cfg.Notifications
	ncfg := notification.Config{
		EmailEnabled: nc.Email.Enabled,
		SMSEnabled:   nc.SMS.Enabled,
		FromEmail:    nc.Email.FromEmail,
		Timeout:      10 * time.Second,
	}
	if !nc.Email.Enabled && !nc.SMS.Enabled {
		return notification.NewNotifier(ncfg, users, nil, nil, log), nil
	}

	awsCfg, err := commonaws.LoadConfig(ctx, nc.AWS.Region)
	if err != nil {
		return nil, err
	}
	var (
		sesClient notification.SESService
		snsClient notification.SNSService
	)
	if nc.Email.Enabled {
		sesClient = commonaws.NewSESClient(awsCfg, true)
	}
	if nc.SMS.Enabled {
		snsClient = commonaws.NewSNSClient(awsCfg, true)
	}
	return notification.NewNotifier(ncfg, users, sesClient, snsClient, log), nil
}

func startWorkers(cfg *config.Config, zeebe *camunda.Client, svc *workflow.Service, notifier *notification.Notifier, obs *observability.Observability, log logger.Logger) []worker.JobWorker {
	client := zeebe.GetClient()
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	submit := sa.NewHandler(&sa.Config{Timeout: timeout(sa.TaskType), Observability: obs}, svc, log)
	decide := rvd.NewHandler(&rvd.Config{Timeout: timeout(rvd.TaskType), Observability: obs}, svc, log)
	regen := rgc.NewHandler(&rgc.Config{Timeout: timeout(rgc.TaskType), Observability: obs}, svc, log)
	notify := na.NewHandler(&na.Config{Timeout: timeout(na.TaskType), Observability: obs}, svc, notifier, log)

	handlers := []struct {
		taskType string
		handle   worker.JobHandler
	}{
		{sa.TaskType, submit.Handle},
		{rvd.TaskType, decide.Handle},
		{rgc.TaskType, regen.Handle},
		{na.TaskType, notify.Handle},
	}

	var workers []worker.JobWorker
	for _, h := range handlers {
		if !config.IsWorkerEnabled(cfg, h.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": h.taskType})
			continue
		}
		workers = append(workers, camunda.StartWorker(client, h.taskType, config.GetWorkerConfig(cfg, h.taskType), h.handle, log))
	}
	return workers
}
