package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/store"
	"candidate-onboarding/internal/notify"
	"candidate-onboarding/internal/platform/config"
	"candidate-onboarding/internal/platform/database"
	"candidate-onboarding/internal/platform/httpserver"
	"candidate-onboarding/internal/platform/logger"
	"candidate-onboarding/internal/platform/metrics"
	httptransport "candidate-onboarding/internal/transport/http"
	"candidate-onboarding/internal/verification"
	"candidate-onboarding/internal/workflow"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		candidates store.CandidateStore
		documents  store.DocumentStore
		bank       store.BankInfoStore
		education  store.EducationStore
	)
	switch cfg.Storage.Records {
	case "postgres":
		db, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		candidates = store.NewPostgresCandidateStore(db)
		documents = store.NewPostgresDocumentStore(db)
		bank = store.NewPostgresBankInfoStore(db)
		education = store.NewPostgresEducationStore(db)
	default:
		candidates = store.NewInMemoryCandidateStore()
		documents = store.NewInMemoryDocumentStore()
		bank = store.NewInMemoryBankInfoStore()
		education = store.NewInMemoryEducationStore()
	}

	var claims notify.ClaimStore
	switch cfg.Storage.Claims {
	case "redis":
		client, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		claims = notify.NewRedisClaimStore(client, time.Duration(cfg.Notify.PendingTTLMillis)*time.Millisecond)
	default:
		claims = notify.NewInMemoryClaimStore()
	}

	var mailer notify.Mailer
	switch cfg.Notify.Transport {
	case "ses":
		sesMailer, err := notify.NewSESMailer(ctx, cfg.Notify.AWSRegion, cfg.Notify.FromEmail)
		if err != nil {
			return fmt.Errorf("init ses mailer: %w", err)
		}
		mailer = sesMailer
	default:
		mailer = notify.NewLogMailer(zlog)
	}

	var sink audit.Sink
	if cfg.Events.Sink == "kafka" {
		kafkaSink, err := audit.NewKafkaSink(cfg.Events.Brokers, cfg.Events.Topic)
		if err != nil {
			return fmt.Errorf("init kafka sink: %w", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	trail := audit.NewTrail(cfg.Events.Buffer, zlog)
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), sink, zlog)
	worker := audit.NewWorker(publisher, trail.Events(), zlog)

	verifier := verification.NewService(documents, verification.NewInMemoryBlobStore(), trail, zlog, m)
	dispatcher := notify.NewDispatcher(
		claims,
		mailer,
		time.Duration(cfg.Notify.TimeoutMillis)*time.Millisecond,
		trail,
		zlog,
		m,
	)
	engine := workflow.NewService(candidates, bank, education, verifier, dispatcher, trail, zlog, m)

	handler := httptransport.NewHandler(engine, verifier, publisher, zlog)
	router := httptransport.NewRouter(handler, zlog, requestTimeout)

	srv := httpserver.New(cfg.Server.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.Server.MetricsAddr, metricsMux)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		zlog.Info("http server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		zlog.Info("metrics server starting", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("http server shutdown", zap.Error(err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("metrics server shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
