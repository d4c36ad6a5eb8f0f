package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/yakoovad/capstone-tracker/internal/api"
	"github.com/yakoovad/capstone-tracker/internal/auth"
	"github.com/yakoovad/capstone-tracker/internal/config"
	"github.com/yakoovad/capstone-tracker/internal/db"
	"github.com/yakoovad/capstone-tracker/internal/notifier"
	"github.com/yakoovad/capstone-tracker/internal/repository"
	"github.com/yakoovad/capstone-tracker/internal/service"
	"github.com/yakoovad/capstone-tracker/migrations"
	"github.com/yakoovad/capstone-tracker/pkg/logger"
	"go.uber.org/zap"
)

const version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting application", zap.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	log.Info("database connection established")

	if cfg.AutoMigrate {
		if err = migrate(pool); err != nil {
			log.Fatal("failed to apply migrations", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	auth.TokenSecretKey = cfg.TokenSecret

	transactor := db.NewPgxTransactor(pool)

	userRepo := repository.NewPgxUserRepository(pool)
	teamRepo := repository.NewPgxTeamRepository(pool)
	projectRepo := repository.NewPgxProjectRepository(pool)
	invitationRepo := repository.NewPgxInvitationRepository(pool)
	requestRepo := repository.NewPgxProfessorRequestRepository(pool)
	assignmentRepo := repository.NewPgxAssignmentRepository(pool)
	activityRepo := repository.NewPgxActivityRepository(pool)
	notificationRepo := repository.NewPgxNotificationRepository(pool)

	checks := []health.Config{api.PostgresCheck(pool)}

	var notify notifier.Notifier = notifier.NewStore(notificationRepo)
	if cfg.RedisAddr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		notify = notifier.Fanout{notify, notifier.NewRedisPublisher(rdb)}
		checks = append(checks, api.RedisCheck(rdb))
		log.Info("redis notification fan-out enabled", zap.String("addr", cfg.RedisAddr))
	}

	team := service.NewTeamService(transactor).
		WithUserRepo(userRepo).
		WithTeamRepo(teamRepo).
		WithProjectRepo(projectRepo).
		WithNotifier(notify)
	invitation := service.NewInvitationService(transactor).
		WithUserRepo(userRepo).
		WithTeamRepo(teamRepo).
		WithInvitationRepo(invitationRepo).
		WithNotifier(notify)
	request := service.NewProfessorRequestService(transactor).
		WithUserRepo(userRepo).
		WithTeamRepo(teamRepo).
		WithProjectRepo(projectRepo).
		WithProfessorRequestRepo(requestRepo).
		WithActivityRepo(activityRepo).
		WithNotifier(notify)
	assignment := service.NewAssignmentService(transactor).
		WithUserRepo(userRepo).
		WithTeamRepo(teamRepo).
		WithProjectRepo(projectRepo).
		WithAssignmentRepo(assignmentRepo).
		WithActivityRepo(activityRepo).
		WithNotifier(notify).
		WithReviewDefaults(cfg.ReviewWindowDays, cfg.ReviewQueueLimit)
	notification := service.NewNotificationService().
		WithNotificationRepo(notificationRepo)

	healthChecker, err := api.NewHealthChecker(version, checks...)
	if err != nil {
		log.Fatal("failed to create health checker", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true

	api.NewHandler(log).
		WithHealthChecker(healthChecker).
		WithTeamService(team).
		WithInvitationService(invitation).
		WithProfessorRequestService(request).
		WithAssignmentService(assignment).
		WithNotificationService(notification).
		RegisterRoutes(e)

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down server", zap.Error(err))
	}
}

func migrate(pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.Up(sqlDB, "."), "goose up")
}
