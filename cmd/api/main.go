package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"med-adherence/internal/adapters/storage/postgres"
	openaivision "med-adherence/internal/adapters/vision/openai"
	"med-adherence/internal/platform/logger"
	"med-adherence/internal/ports/vision"
	"med-adherence/internal/router"
	"med-adherence/internal/scheduler"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	opts := router.Options{AuthVerifier: nil, Log: log} // sin verifier para modo dev

	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		db, err := postgres.Open(dsn)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
		log.Info("using postgres storage", nil)
	} else {
		log.Info("using in-memory storage", nil)
	}

	opts.Vision = visionFromEnv(log)

	handler, svcs := router.NewRouter(opts)

	sched := scheduler.New(scheduler.Options{
		Users:  svcs.Medications,
		Syncer: svcs.Reminders,
		Log:    log,
		Spec:   os.Getenv("REMINDER_CRON"),
	})
	if err := sched.Start(); err != nil {
		log.Error("scheduler start failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting server", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", map[string]any{"error": err.Error()})
	}
	log.Info("server stopped", nil)
}

// visionFromEnv arma el cliente de visión si hay API key. Devuelve nil
// (interface nil de verdad) cuando no está configurado.
func visionFromEnv(log logger.Logger) vision.Analyzer {
	apiKey := os.Getenv("VISION_API_KEY")
	if apiKey == "" {
		log.Info("vision not configured, photo features disabled", nil)
		return nil
	}

	baseURL := os.Getenv("VISION_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	client, err := openaivision.NewClient(openaivision.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   os.Getenv("VISION_MODEL"),
	})
	if err != nil {
		log.Warn("vision client init failed, photo features disabled", map[string]any{"error": err.Error()})
		return nil
	}

	log.Info("vision configured", map[string]any{"base_url": baseURL})
	return openaivision.NewAnalyzer(client)
}
