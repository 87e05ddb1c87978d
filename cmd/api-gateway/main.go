package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/handler"
	"github.com/noah-isme/labgate-api/internal/repository"
	"github.com/noah-isme/labgate-api/internal/service"
	"github.com/noah-isme/labgate-api/pkg/cache"
	"github.com/noah-isme/labgate-api/pkg/config"
	"github.com/noah-isme/labgate-api/pkg/database"
	"github.com/noah-isme/labgate-api/pkg/jobs"
	"github.com/noah-isme/labgate-api/pkg/logger"
	"github.com/noah-isme/labgate-api/pkg/storage"
)

// @title Labgate API
// @version 1.0.0
// @description Lab attendance validation: rotating QR credentials, scan decisions and door controller signalling.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.SessionCache.Enabled || cfg.Scanner.Gate == config.GateRedis {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			if cfg.Scanner.Gate == config.GateRedis {
				logr.Fatal("redis required by SCANNER_GATE=redis", zap.Error(err))
			}
			logr.Warn("redis unavailable, session cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	clock := service.NewSystemClock(cfg.Location)
	metrics := service.NewMetricsService()

	subjectRepo := repository.NewSubjectRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.SessionCache.TTL, logr, cfg.SessionCache.Enabled && redisClient != nil)
	if cacheSvc.Enabled() {
		// schedules are edited outside this service; start from a cold cache
		if err := cacheRepo.DeleteByPattern(ctx, "labgate:session:*"); err != nil {
			logr.Warn("failed to flush session cache", zap.Error(err))
		}
	}
	sessions := service.NewSessionCatalog(sessionRepo, cacheSvc, cfg.SessionCache.TTL, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	credentials := service.NewCredentialService(subjectRepo, clock, metrics, service.CredentialServiceConfig{
		RotationPeriod: cfg.Credential.RotationPeriod,
		QRSize:         cfg.Credential.QRSize,
	}, logr)
	defer credentials.Shutdown()

	resolver := service.NewEnrollmentResolver(sessions, enrollmentRepo, cfg.Resolver.TieBreak, logr)
	engine := service.NewDecisionEngine(subjectRepo, resolver, attendanceRepo, metrics, logr)
	dispatcher := service.NewControllerDispatcher(cfg.Controller, nil, metrics, logr)
	if !dispatcher.Enabled() {
		logr.Warn("door controller disabled, verdicts will not be signalled")
	}

	var gate service.ScanGate = service.NewMemoryScanGate(clock)
	if cfg.Scanner.Gate == config.GateRedis {
		gate = repository.NewScanGateRepository(redisClient, cfg.Scanner.ProcessingTTL)
	}
	station := service.NewScanStation(gate, engine, dispatcher, clock, cfg.Scanner.Cooldown, metrics, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessions, clock, validate, logr)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		queue, exportJobs, err := buildExports(cfg, db, attendanceRepo, validate, logr)
		if err != nil {
			logr.Fatal("failed to initialise exports", zap.Error(err))
		}
		queue.Start(ctx)
		defer queue.Stop()
		exportJobs.RecoverPending(ctx)
		exportJobs.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobs)
	} else {
		exportHandler = handler.NewExportHandler(nil)
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	router := newRouter(cfg, logr, metrics, authSvc, routes{
		credentials: handler.NewCredentialHandler(credentials),
		scanner:     handler.NewScanHandler(station, validate),
		attendance:  handler.NewAttendanceHandler(attendanceSvc),
		exports:     exportHandler,
		health:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("timezone", cfg.Location.String()),
			zap.String("scan_gate", cfg.Scanner.Gate))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildExports(cfg *config.Config, db *sqlx.DB, attendanceRepo *repository.AttendanceRepository, validate *validator.Validate, logr *zap.Logger) (*jobs.Queue, *service.ExportJobService, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(attendanceRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
		Location:  cfg.Location,
	}, logr)

	jobRepo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(jobRepo, exporter, cfg.Exports.WorkerRetries, logr)
	queue := jobs.New("attendance-export", worker.Handle, jobs.Config{
		Workers:     cfg.Exports.WorkerConcurrency,
		Buffer:      64,
		MaxAttempts: cfg.Exports.WorkerRetries,
		Backoff:     2 * time.Second,
		Logger:      logr,
	})
	exportJobs := service.NewExportJobService(jobRepo, queue, exporter, validate, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	return queue, exportJobs, nil
}
