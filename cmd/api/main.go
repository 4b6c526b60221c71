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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pda-bills-api/api/swagger"
	"github.com/noah-isme/pda-bills-api/internal/handler"
	"github.com/noah-isme/pda-bills-api/internal/repository"
	"github.com/noah-isme/pda-bills-api/internal/service"
	"github.com/noah-isme/pda-bills-api/internal/workflow"
	"github.com/noah-isme/pda-bills-api/migrations"
	"github.com/noah-isme/pda-bills-api/pkg/cache"
	"github.com/noah-isme/pda-bills-api/pkg/config"
	"github.com/noah-isme/pda-bills-api/pkg/database"
	"github.com/noah-isme/pda-bills-api/pkg/export"
	"github.com/noah-isme/pda-bills-api/pkg/logger"
	"github.com/noah-isme/pda-bills-api/pkg/storage"
)

// @title PDA Bills API
// @version 1.0.0
// @description Bill submission and multi-stage approval workflow
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db, migrations.FS, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	billRepo := repository.NewBillRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	txRunner := database.NewTxRunner(db)

	employeeSvc := service.NewEmployeeService(employeeRepo, validate, logr)
	balanceSvc := service.NewBalanceService(balanceRepo, billRepo, employeeRepo, txRunner, metrics, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.Expiration,
	}, validate, logr)

	notifier, closeNotifier, err := buildNotifier(cfg, redisClient, logr)
	if err != nil {
		return err
	}
	defer closeNotifier()
	notificationSvc := service.NewNotificationService(notifier, service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, metrics, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	billOpts := []service.BillServiceOption{
		service.WithNotifier(notificationSvc),
		service.WithBillMetrics(metrics),
	}
	if redisClient != nil && cfg.Cache.Enabled {
		cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.TTL, logr, true)
		billOpts = append(billOpts, service.WithBillCache(cacheSvc, cfg.Cache.TTL))
	}
	if redisClient != nil && cfg.Idempotency.Enabled {
		billOpts = append(billOpts, service.WithIdempotency(repository.NewIdempotencyRepository(redisClient), cfg.Idempotency.TTL))
	}

	var artifactSvc *service.ArtifactService
	if cfg.Artifacts.Enabled {
		artifactSvc, err = buildArtifacts(cfg, metrics, logr)
		if err != nil {
			return err
		}
		artifactSvc.Start(ctx)
		defer artifactSvc.Stop()
		billOpts = append(billOpts, service.WithArtifacts(artifactSvc))
	}

	policy := workflow.NewPolicy(cfg.Workflow.Threshold)
	billSvc := service.NewBillService(billRepo, employeeRepo, balanceSvc, txRunner, policy, validate, logr, billOpts...)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:      authSvc,
		metrics:   metrics,
		bills:     handler.NewBillHandler(billSvc, artifactLinks(artifactSvc)),
		artifacts: artifactHandler(artifactSvc),
		balances:  handler.NewBalanceHandler(balanceSvc),
		employees: handler.NewEmployeeHandler(employeeSvc),
		tokens:    handler.NewAuthHandler(authSvc),
		health:    handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("notifier", notifier.Name()),
			zap.String("threshold", policy.Threshold().String()),
			zap.Bool("artifacts", cfg.Artifacts.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Cache.Enabled || cfg.Idempotency.Enabled ||
		cfg.Notifications.Driver == config.NotifierRedis || cfg.Notifications.Driver == config.NotifierAsynq
}

func buildNotifier(cfg *config.Config, client *redis.Client, logr *zap.Logger) (service.Notifier, func(), error) {
	noop := func() {}
	switch cfg.Notifications.Driver {
	case config.NotifierRedis:
		return service.NewRedisNotifier(client, cfg.Notifications.RedisChannel), noop, nil
	case config.NotifierAsynq:
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cache.Addr(cfg.Redis),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return service.NewAsynqNotifier(asynqClient, cfg.Notifications.AsynqQueue), func() { _ = asynqClient.Close() }, nil
	case config.NotifierLog, "":
		return service.NewLogNotifier(logr), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown notifier driver %q", cfg.Notifications.Driver)
}

func buildArtifacts(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.ArtifactService, error) {
	store, err := storage.NewLocalStorage(cfg.Artifacts.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact storage: %w", err)
	}
	html, err := export.NewHTMLExporter()
	if err != nil {
		return nil, fmt.Errorf("init html exporter: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SignedURLSecret, cfg.Artifacts.SignedURLTTL)
	return service.NewArtifactService(store, signer, html, export.NewPDFExporter(), service.ArtifactConfig{
		PublicBaseURL: cfg.Artifacts.PublicBaseURL,
		APIPrefix:     cfg.APIPrefix,
		Workers:       cfg.Artifacts.Workers,
		MaxRetries:    2,
		RetryDelay:    2 * time.Second,
	}, metrics, logr), nil
}

// artifactLinks avoids handing a typed nil to the handler.
func artifactLinks(svc *service.ArtifactService) handler.ArtifactLinker {
	if svc == nil {
		return nil
	}
	return svc
}

func artifactHandler(svc *service.ArtifactService) *handler.ArtifactHandler {
	if svc == nil {
		return nil
	}
	return handler.NewArtifactHandler(svc)
}
