package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/teamdo/backend/api/handler"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/internal/config"
	"github.com/teamdo/backend/internal/dedup"
	"github.com/teamdo/backend/internal/infrastructure/monitor"
	pgInfra "github.com/teamdo/backend/internal/infrastructure/postgres"
	redisInfra "github.com/teamdo/backend/internal/infrastructure/redis"
	"github.com/teamdo/backend/internal/infrastructure/spool"
	"github.com/teamdo/backend/internal/middleware"
	"github.com/teamdo/backend/internal/router"
	"github.com/teamdo/backend/internal/services"
	"github.com/teamdo/backend/internal/services/lifecycle"
	"github.com/teamdo/backend/pkg/httpcontext"
	"github.com/teamdo/backend/pkg/logger"
	"github.com/teamdo/backend/repository/postgres"
	redisRepo "github.com/teamdo/backend/repository/redis"
	authUC "github.com/teamdo/backend/usecase/auth"
	categoryUC "github.com/teamdo/backend/usecase/category"
	groupUC "github.com/teamdo/backend/usecase/group"
	todoUC "github.com/teamdo/backend/usecase/todo"
	userUC "github.com/teamdo/backend/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	spoolStore, err := spool.Open(cfg.AuditSpool.Path, "audit_spool")
	if err != nil {
		zapLogger.Fatal("failed to open audit spool", zap.Error(err))
	}
	manager.Register("audit_spool", func(ctx context.Context) error {
		return spoolStore.Close()
	})

	mon := monitor.New(pool, redisClient, spoolStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	todoRepo := postgres.NewTodoRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)

	recorder := audit.NewRecorder(auditRepo, spoolStore, middleware.ActorName, zapLogger)

	drainer := services.NewAuditSpoolDrainer(spoolStore, mon, auditRepo, zapLogger, services.DrainConfig{
		Interval:   cfg.AuditSpool.DrainInterval,
		BatchSize:  cfg.AuditSpool.BatchSize,
		MaxRetries: cfg.AuditSpool.MaxRetries,
	})
	drainer.Start()
	manager.Register("audit_drainer", func(ctx context.Context) error {
		drainer.Stop(ctx)
		return nil
	})

	guard := dedup.New(cfg.Dedup.Window)
	notifier := services.NewLogNotifier(zapLogger)

	todoService := todoUC.New(todoRepo, groupRepo, userRepo, categoryRepo, attachmentRepo, guard, recorder, notifier, zapLogger)
	groupService := groupUC.New(groupRepo, recorder, zapLogger)
	categoryService := categoryUC.New(categoryRepo, recorder, zapLogger)
	userService := userUC.New(userRepo, recorder, zapLogger)
	authUseCase := authUC.New(userRepo, sessionRepo, recorder, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Todo:   apiHandler.NewTodoHandler(todoService, ctxAdapter, zapLogger),
		Group:  apiHandler.NewGroupHandler(groupService, categoryService, ctxAdapter, zapLogger),
		User:   apiHandler.NewUserHandler(userService, ctxAdapter, zapLogger),
		Audit:  apiHandler.NewAuditHandler(auditRepo, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
