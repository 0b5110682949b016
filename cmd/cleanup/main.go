// Command cleanup expires or deletes pending orders that were never paid.
//
//	cleanup --ttl-seconds 86400
//	cleanup --delete --delete-after-days 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/infra/db"
	infraRepo "github.com/NekoNeko6996/cusc-edx-api/internal/infra/repository"
	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cleanup:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	in, err := parseFlags(args, cfg.PendingOrderTTL)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uc := usecase.NewCleanupUsecase(infraRepo.NewTxManagerGorm(gormDB), usecase.SystemClock{})
	res, err := uc.Run(ctx, in)
	if err != nil {
		return err
	}

	fmt.Println(res.Message)
	return nil
}

// longer windows would overflow time.Duration
const (
	maxTTLSeconds = 100 * 365 * 24 * 60 * 60
	maxDays       = 100 * 365
)

func parseFlags(args []string, defaultTTL time.Duration) (usecase.CleanupInput, error) {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	ttlSeconds := fs.Int64("ttl-seconds", int64(defaultTTL/time.Second), "pending orders older than this many seconds are processed")
	del := fs.Bool("delete", false, "delete the orders instead of marking them expired")
	days := fs.Int64("delete-after-days", 0, "with --delete, only delete orders older than this many days")
	if err := fs.Parse(args); err != nil {
		return usecase.CleanupInput{}, err
	}
	if *ttlSeconds < 0 {
		return usecase.CleanupInput{}, fmt.Errorf("--ttl-seconds must not be negative")
	}
	if *ttlSeconds > maxTTLSeconds {
		return usecase.CleanupInput{}, fmt.Errorf("--ttl-seconds must be at most %d", maxTTLSeconds)
	}

	in := usecase.CleanupInput{
		TTL:    time.Duration(*ttlSeconds) * time.Second,
		Delete: *del,
	}

	daysSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "delete-after-days" {
			daysSet = true
		}
	})
	switch {
	case daysSet && !*del:
		slog.Warn("--delete-after-days is ignored without --delete")
	case daysSet:
		if *days < 0 {
			return usecase.CleanupInput{}, fmt.Errorf("--delete-after-days must not be negative")
		}
		if *days > maxDays {
			return usecase.CleanupInput{}, fmt.Errorf("--delete-after-days must be at most %d", maxDays)
		}
		d := time.Duration(*days) * 24 * time.Hour
		in.DeleteAfter = &d
	}
	return in, nil
}
