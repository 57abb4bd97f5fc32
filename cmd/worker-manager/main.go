// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"funding-match-workers/internal/common/aws"
	"funding-match-workers/internal/common/camunda"
	"funding-match-workers/internal/common/config"
	"funding-match-workers/internal/common/database"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/observability"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/matches"
	"funding-match-workers/internal/profiles"
	"funding-match-workers/internal/programs"
	"funding-match-workers/internal/rematch"
	"funding-match-workers/internal/scheduler"
	"funding-match-workers/pkg/registry"

	// Communication Workers (1)
	nm "funding-match-workers/internal/workers/communication/notify-matches"

	// Qualification Workers (3)
	rfp "funding-match-workers/internal/workers/qualification/rank-funding-programs"
	rpr "funding-match-workers/internal/workers/qualification/request-program-rematch"
	spq "funding-match-workers/internal/workers/qualification/score-program-qualification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type registeredWorker struct {
	taskType string
	handler  camunda.JobHandler
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})
	log.Info("Starting worker manager...", map[string]interface{}{"version": cfg.App.Version})

	obs, err := observability.New(cfg.App.Name, observability.WithVersion(cfg.App.Version))
	if err != nil {
		log.Warn("observability init degraded", map[string]interface{}{"error": err})
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected successfully", nil)

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	programIndex := cfg.Database.Elasticsearch.ProgramIndex
	if err := esClient.EnsureProgramIndex(ctx, programIndex); err != nil {
		zapLog.Fatal("program index setup failed", zap.Error(err))
	}
	log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": programIndex})

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	log.Info("Redis connected successfully", nil)

	// --- Activity registry and input schemas ---
	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	for _, problem := range reg.Check() {
		log.Warn("activity registry problem", map[string]interface{}{"error": problem})
	}
	validator, err := validation.NewSchemaValidator(reg)
	if err != nil {
		zapLog.Fatal("input schema compile failed", zap.Error(err))
	}

	// --- Adapters ---
	profileSource := profiles.NewCachedSource(
		profiles.NewPostgresSource(pg.DB),
		redis.Client,
		time.Duration(cfg.Matching.ProfileCacheTTL)*time.Second,
		log,
	)
	catalog := programs.NewPostgresCatalog(pg.DB)
	searcher := programs.NewESSearcher(esClient.Client, programIndex)
	store := matches.NewPostgresStore(pg.DB)
	trigger := rematch.NewZeebeTrigger(
		zeebe.GetClient(),
		cfg.Matching.RematchMessage,
		config.GetDuration(cfg.Matching.RematchMessageTTL),
		camunda.DefaultRetryConfig,
		log,
	)

	var sesService nm.SESService
	var snsService nm.SNSService
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		sesService = aws.NewSESClient(awsCfg)
		snsService = aws.NewSNSClient(awsCfg)
	}

	log.Info("All adapters initialized", nil)

	// --- Register Workers ---
	workerTimeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	notifyDefaults := nm.LoadConfig()

	workers := []registeredWorker{
		{
			taskType: spq.TaskType,
			handler: spq.NewHandler(
				&spq.Config{
					Timeout:        workerTimeout(spq.TaskType),
					PersistMatches: cfg.Matching.PersistMatches,
				},
				profileSource, store, validator, obs, log,
			),
		},
		{
			taskType: rfp.TaskType,
			handler: rfp.NewHandler(
				&rfp.Config{
					Timeout:          workerTimeout(rfp.TaskType),
					PersistMatches:   cfg.Matching.PersistMatches,
					MaxRankedItems:   cfg.Matching.MaxRankedItems,
					SearchCandidates: cfg.Matching.SearchCandidates,
					SearchIndex:      programIndex,
				},
				rfp.Dependencies{
					Profiles: profileSource,
					Catalog:  catalog,
					Searcher: searcher,
					Store:    store,
				},
				validator, obs, log,
			),
		},
		{
			taskType: rpr.TaskType,
			handler: rpr.NewHandler(
				&rpr.Config{
					Timeout:         workerTimeout(rpr.TaskType),
					InvalidateCache: true,
				},
				trigger, profileSource, validator, log,
			),
		},
		{
			taskType: nm.TaskType,
			handler: nm.NewHandler(
				&nm.Config{
					EmailEnabled:       cfg.Notifications.Email.Enabled,
					SMSEnabled:         cfg.Notifications.SMS.Enabled,
					FromEmail:          cfg.Notifications.Email.FromEmail,
					SMSSenderID:        cfg.Notifications.SMS.SenderID,
					PortalURL:          cfg.Notifications.PortalURL,
					DefaultMinScore:    notifyDefaults.DefaultMinScore,
					DefaultMaxPrograms: notifyDefaults.DefaultMaxPrograms,
					Timeout:            workerTimeout(nm.TaskType),
				},
				profileSource, store, catalog, sesService, snsService, validator, log,
			),
		},
	}

	client := zeebe.GetClient()
	var jobWorkers []worker.JobWorker
	for _, w := range workers {
		if !config.IsWorkerEnabled(cfg, w.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": w.taskType})
			continue
		}
		if _, ok := reg.Find(w.taskType); !ok {
			log.Warn("worker has no activity registry entry, input is not schema-checked", map[string]interface{}{
				"taskType": w.taskType,
			})
		}
		jobWorkers = append(jobWorkers, camunda.StartWorker(client, w.taskType, config.GetWorkerConfig(cfg, w.taskType), w.handler, obs, log))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(jobWorkers)})

	// --- Re-matching sweep ---
	var sweeper *scheduler.RematchSweeper
	if cfg.Matching.RematchEnabled {
		sweeper = scheduler.NewRematchSweeper(store, trigger, cfg.Matching.RematchBatchSize, cfg.Matching.RematchConcurrency, log)
		if err := sweeper.Start(cfg.Matching.RematchSchedule); err != nil {
			zapLog.Fatal("rematch sweeper start failed", zap.Error(err))
		}
	}

	// --- Health & Metrics ---
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"status": "ready"}
		code := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"postgres":      pg.Ping,
			"redis":         redis.Ping,
			"elasticsearch": esClient.Ping,
			"zeebe":         zeebe.HealthCheck,
		} {
			if err := check(checkCtx); err != nil {
				checks[name] = err.Error()
				checks["status"] = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		writeStatus(w, code, checks)
	})
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop()
	}
	for _, jw := range jobWorkers {
		jw.Close()
	}
	for _, jw := range jobWorkers {
		jw.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("Worker manager stopped", nil)
}

func writeStatus(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
