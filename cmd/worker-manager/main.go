// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dishprice-workers/internal/common/camunda"
	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/observability"
	"dishprice-workers/internal/compare"
	"dishprice-workers/pkg/registry"

	cdp "dishprice-workers/internal/workers/pricing/compare-dish-prices"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logger.FileOptions{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("Starting worker manager", nil)

	obs := observability.NewWithOptions(observability.Options{
		ServiceName:     cfg.Tracing.ServiceName,
		TracingEnabled:  cfg.Tracing.Enabled,
		TracingEndpoint: cfg.Tracing.Endpoint,
	})
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		Retry:                  camunda.DefaultConnectPolicy,
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- Activity registry ---
	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry failed to load", zap.Error(err))
	}
	activity, ok := reg.Find(cdp.TaskType)
	if !ok {
		zapLog.Fatal("activity not registered", zap.String("taskType", cdp.TaskType))
	}

	// --- Workers ---
	service := compare.NewServiceFromConfig(cfg, obs, log)

	wcfg := cfg.Workers[cdp.TaskType]
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout == 0 {
		timeout = activity.TimeoutDuration()
	}
	handler := cdp.NewHandler(
		&cdp.Config{
			Timeout:      timeout,
			InputSchema:  activity.InputSchema,
			OutputSchema: activity.OutputSchema,
		},
		service, obs, log,
	)
	jobWorker := camunda.StartWorker(zeebe.GetClient(), cdp.TaskType, wcfg, handler, log)

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobWorker.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
