// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cpq-workers/internal/common/camunda"
	"cpq-workers/internal/common/config"
	"cpq-workers/internal/common/database"
	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/common/observability"
	"cpq-workers/internal/pricing/rates"
	"cpq-workers/pkg/registry"

	// Quote Workers (4)
	cq "cpq-workers/internal/workers/quote/calculate-quote"
	sqv "cpq-workers/internal/workers/quote/save-quote-version"
	sqn "cpq-workers/internal/workers/quote/send-quote-notification"
	vqi "cpq-workers/internal/workers/quote/validate-quote-integrity"

	// CRM Workers (1)
	slq "cpq-workers/internal/workers/crm/sync-lead-quote"

	// Data Access Workers (2)
	qe "cpq-workers/internal/workers/data-access/query-elasticsearch"
	qp "cpq-workers/internal/workers/data-access/query-postgresql"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

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

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load Rate Table ---
	rateTable := rates.Default()
	if cfg.Pricing.RateTablePath != "" {
		rateTable, err = rates.LoadFile(cfg.Pricing.RateTablePath)
		if err != nil {
			zapLog.Fatal("rate table load failed",
				zap.String("path", cfg.Pricing.RateTablePath),
				zap.Error(err),
			)
		}
		zapLog.Info("Rate table loaded", zap.String("path", cfg.Pricing.RateTablePath))
	}

	rateStore, err := rates.NewStore(rateTable)
	if err != nil {
		zapLog.Fatal("rate table validation failed", zap.Error(err))
	}

	// --- Load Activity Registry ---
	var calcActivity *registry.Activity
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry not loaded, schema validation disabled",
			zap.String("path", cfg.Registry.Path),
			zap.Error(err),
		)
	} else if a, ok := reg.FindByTaskType(cq.TaskType); ok {
		calcActivity = a
	}

	// --- START: Register ALL 7 Workers ---
	var jobWorkers []*camunda.Worker

	// --- 1. Quote Workers (4) ---
	if cfg.Workers[cq.TaskType].Enabled {
		handler := cq.NewHandler(
			&cq.Config{
				Timeout:         time.Duration(cfg.Workers[cq.TaskType].Timeout) * time.Millisecond,
				DefaultProvider: cfg.Pricing.Provider,
				AutoAdjust:      cfg.Pricing.AutoAdjust,
			},
			rateStore, calcActivity, log,
		)
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, cq.TaskType, cfg.Workers[cq.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[sqv.TaskType].Enabled {
		handler := sqv.NewHandler(
			&sqv.Config{
				Timeout:  time.Duration(cfg.Workers[sqv.TaskType].Timeout) * time.Millisecond,
				CacheTTL: time.Hour,
			},
			pg.DB, redis.Client, log,
		)
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, sqv.TaskType, cfg.Workers[sqv.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[vqi.TaskType].Enabled {
		handler := vqi.NewHandler(
			&vqi.Config{
				Timeout: time.Duration(cfg.Workers[vqi.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, vqi.TaskType, cfg.Workers[vqi.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[sqn.TaskType].Enabled {
		handler, err := sqn.NewHandler(
			&sqn.Config{
				EmailEnabled:       cfg.Notifications.Email.Enabled,
				SMSEscalateBlocked: cfg.Notifications.SMS.EscalateBlocked,
				FromEmail:          cfg.Notifications.Email.FromEmail,
				AWSRegion:          cfg.Integrations.AWS.Region,
				Timeout:            time.Duration(cfg.Workers[sqn.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-quote-notification handler", zap.Error(err))
		}
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, sqn.TaskType, cfg.Workers[sqn.TaskType], handler.Handle, zapLog))
	}

	// --- 2. CRM Workers (1) ---
	if cfg.Workers[slq.TaskType].Enabled {
		handler, err := slq.NewHandler(
			&slq.Config{
				Enabled:        true,
				Timeout:        time.Duration(cfg.Workers[slq.TaskType].Timeout) * time.Millisecond,
				ZohoAPIKey:     cfg.Integrations.Zoho.APIKey,
				ZohoOAuthToken: cfg.Integrations.Zoho.AuthToken,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create sync-lead-quote handler", zap.Error(err))
		}
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, slq.TaskType, cfg.Workers[slq.TaskType], handler.Handle, zapLog))
	}

	// --- 3. Data Access Workers (2) ---
	if cfg.Workers[qp.TaskType].Enabled {
		handler := qp.NewHandler(
			&qp.Config{
				Timeout: time.Duration(cfg.Workers[qp.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, qp.TaskType, cfg.Workers[qp.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[qe.TaskType].Enabled {
		handler := qe.NewHandler(
			&qe.Config{
				Timeout: time.Duration(cfg.Workers[qe.TaskType].Timeout) * time.Millisecond,
			},
			esClient.Client, log,
		)
		jobWorkers = append(jobWorkers, startWorker(zeebeClient, qe.TaskType, cfg.Workers[qe.TaskType], handler.Handle, zapLog))
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range jobWorkers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.Worker {
	return camunda.NewWorker(
		client,
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		log,
	)
}
