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

	_ "surveillance/api/swagger" // swagger docs
	"surveillance/internal/auth"
	"surveillance/internal/config"
	"surveillance/internal/database"
	"surveillance/internal/events"
	"surveillance/internal/export"
	"surveillance/internal/handler"
	"surveillance/internal/logger"
	"surveillance/internal/middleware"
	"surveillance/internal/notify"
	"surveillance/internal/repository"
	"surveillance/internal/service"
	"surveillance/internal/tasks"
	"surveillance/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Public Health Surveillance API
// @version         1.0
// @description     ASHA field reporting, clinical review, district alerting and state dashboards.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "surveillance-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	boundaryRepo := repository.NewBoundaryRepository(db)
	reportRepo := repository.NewReportRepository(db)
	waterRepo := repository.NewWaterQualityRepository(db)
	clinicalRepo := repository.NewClinicalRepository(db)
	directiveRepo := repository.NewDirectiveRepository(db)
	advisoryRepo := repository.NewAdvisoryRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	scoreRepo := repository.NewRiskScoreRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	// Background jobs
	notifier, err := buildNotifier(ctx, cfg.Notify, log)
	if err != nil {
		return err
	}
	dispatcher := tasks.NewDispatcher(log)
	dispatcher.Register(tasks.JobSendAlertNotification, tasks.SendAlertNotification(alertRepo, notifier))
	dispatcher.Register(tasks.JobRunRiskPrediction, tasks.RunRiskPrediction(boundaryRepo, tasks.NewPlaceholderPredictor(time.Now().UnixNano()), log))

	var queue tasks.Queue
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		queue = tasks.NewRedisQueue(client, cfg.Redis.Stream)

		hostname, _ := os.Hostname()
		worker := tasks.NewWorker(client, cfg.Redis.Stream, cfg.Redis.Group, "api-"+hostname, dispatcher, log)
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error("task worker stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("REDIS_ADDR not set, running background jobs inline")
		queue = tasks.NewInlineQueue(dispatcher)
	}

	// Event fan-out: websocket dashboards, Kafka, notification jobs
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	bus := events.NewBus(log)
	bus.Subscribe(wsHub.HandleEvent)
	bus.Subscribe(tasks.ForwardAlerts(queue, log))
	if cfg.Kafka.Enabled() {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer func() { _ = kafkaPublisher.Close() }()
		bus.Subscribe(kafkaPublisher.Handle)
	}

	var archiver service.ReportArchiver
	if cfg.Export.Bucket != "" {
		s3Archiver, err := export.NewArchiver(ctx, cfg.Export.Bucket)
		if err != nil {
			return fmt.Errorf("failed to configure export archive: %w", err)
		}
		archiver = s3Archiver
	}

	// Services
	tokens := auth.NewTokenManager([]byte(cfg.JWT.Secret), cfg.JWT.AccessTTL)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(roleRepo, userRepo, txManager, log)
	authService := service.NewAuthService(userRepo, tokenRepo, tokens, cfg.JWT.RefreshTTL, txManager, log)
	registrationService := service.NewRegistrationService(registrationRepo, userRepo, roleRepo, auditService, txManager, log)
	boundaryService := service.NewBoundaryService(boundaryRepo)
	alertRule := service.NewAlertRule(boundaryRepo, alertRepo, auditService, log)
	reportService := service.NewReportService(reportRepo, boundaryRepo, alertRule, auditService, txManager, bus, archiver, log)
	waterService := service.NewWaterQualityService(waterRepo, boundaryRepo)
	clinicalService := service.NewClinicalService(clinicalRepo, reportRepo, auditService, txManager, log)
	directiveService := service.NewDirectiveService(directiveRepo, boundaryRepo, auditService, txManager)
	advisoryService := service.NewAdvisoryService(advisoryRepo, auditService, txManager)
	alertService := service.NewAlertService(alertRepo, boundaryRepo, auditService, txManager, bus, log)
	riskService := service.NewRiskScoreService(scoreRepo, boundaryRepo, queue, log)
	dashboardService := service.NewDashboardService(statsRepo, boundaryRepo, scoreRepo)

	if err := roleService.Bootstrap(ctx, cfg.Bootstrap); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	// Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Archive-Key"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, tokens)
	})

	api := router.Group("")
	handler.NewAuthHandler(authService, registrationService, tokens, log).RegisterRoutes(api)
	handler.NewRoleHandler(roleService, log).RegisterRoutes(api)
	handler.NewReportHandler(reportService, waterService, tokens, log).RegisterRoutes(api)
	handler.NewDistrictHandler(boundaryService, directiveService, dashboardService, tokens, log).RegisterRoutes(api)
	handler.NewClinicalHandler(clinicalService, tokens, log).RegisterRoutes(api)
	handler.NewStateHandler(advisoryService, dashboardService, tokens, log).RegisterRoutes(api)
	handler.NewAlertHandler(alertService, riskService, queue, tokens, log).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, tokens, log).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTP.Port))
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildNotifier(ctx context.Context, cfg config.NotifyConfig, log *zap.Logger) (notify.Notifier, error) {
	switch cfg.Driver {
	case "sqs":
		n, err := notify.NewSQSNotifier(ctx, cfg.SQSQueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure sqs notifier: %w", err)
		}
		return n, nil
	case "webhook":
		return notify.NewWebhookNotifier(cfg.WebhookURL), nil
	default:
		return notify.NewLogNotifier(log), nil
	}
}
