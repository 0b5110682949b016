package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/handler"
	"github.com/NekoNeko6996/cusc-edx-api/internal/infra/db"
	infraRepo "github.com/NekoNeko6996/cusc-edx-api/internal/infra/repository"
	"github.com/NekoNeko6996/cusc-edx-api/internal/server"
	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"
	"github.com/NekoNeko6996/cusc-edx-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if !cfg.AuthEnabled() {
		slog.Warn("CUSC_PAYMENT_API_TOKEN is empty, payment endpoints are unauthenticated")
	}

	//DB
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
	}

	//Repository
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	enrollRepo := infraRepo.NewEnrollmentGormRepository(gormDB)
	modeRepo := infraRepo.NewCourseModeGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	clock := usecase.SystemClock{}
	parser := coursekey.Parser{}

	//Usecase
	orderUC := usecase.NewOrderUsecase(orderRepo, userRepo)
	statusUC := usecase.NewOrderStatusUsecase(orderRepo, enrollRepo, parser, clock, cfg.EnrollmentMode)
	userUC := usecase.NewUserUsecase(userRepo)
	pricingUC := usecase.NewCoursePricingUsecase(modeRepo, parser, clock)
	cleanupUC := usecase.NewCleanupUsecase(txm, clock)

	//Handler
	e := server.New(cfg, server.Handlers{
		Ping:    handler.NewPingHandler(),
		Orders:  handler.NewOrderHandler(orderUC, statusUC),
		Users:   handler.NewUserHandler(userUC),
		Pricing: handler.NewCoursePricingHandler(pricingUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.ReaperInterval > 0 {
		reaper := worker.NewOrderReaper(cleanupUC, cfg.PendingOrderTTL, cfg.ReaperInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reaper.Run(ctx)
		}()
	}

	err = server.Run(ctx, e, ":"+cfg.Port, cfg.ShutdownTimeout)
	stop()
	wg.Wait()

	if sqlDB, dbErr := gormDB.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}
