package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/app"
	"github.com/Freeeeeet/hospital_booking/internal/config"
	"github.com/Freeeeeet/hospital_booking/internal/controller"
	"github.com/Freeeeeet/hospital_booking/internal/controller/handlers"
	"github.com/Freeeeeet/hospital_booking/internal/repository"
	"github.com/Freeeeeet/hospital_booking/internal/repository/memory"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting hospital booking bot",
		zap.String("storage", cfg.Storage),
		zap.Bool("env_file", cfg.EnvFileLoaded),
		zap.Int("horizon_days", cfg.ScheduleHorizonDays),
		zap.Int("admins", len(cfg.AdminTelegramIDs)),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	horizon := service.Horizon{Days: cfg.ScheduleHorizonDays, Now: time.Now}

	notificationService := service.NewNotificationService(store, logger.Named("notifications"))
	bookingService := service.NewBookingService(store, notificationService, logger.Named("booking"))
	scheduleService := service.NewScheduleService(store, horizon, logger.Named("schedule"))
	availabilityService := service.NewAvailabilityService(store, horizon)
	userService := service.NewUserService(store, cfg.AdminTelegramIDs, logger.Named("users"))

	if cfg.SeedDemo {
		if err := app.SeedDemo(ctx, store, scheduleService, time.Now(), logger); err != nil {
			return err
		}
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	cmdHandlers := handlers.NewHandlers(
		userService,
		bookingService,
		scheduleService,
		availabilityService,
		notificationService,
		handlers.NewUserLimiter(cfg.BookingRatePerMinute),
		logger.Named("bot"),
	)

	botController := controller.NewBotController(b, cmdHandlers, logger.Named("bot"))
	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично для работы
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	scheduler := app.NewScheduler(notificationService, controller.NewTelegramSender(b), cfg.NotifyInterval, logger.Named("delivery"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return botController.Start(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	return g.Wait()
}

// openStore создаёт хранилище по конфигу и применяет миграции для PostgreSQL
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger.Named("migrator"))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewStore(pool), pool.Close, nil
}
