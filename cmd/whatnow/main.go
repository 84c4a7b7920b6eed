package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatnow/internal/bot"
	"whatnow/internal/config"
	"whatnow/internal/repository"
	"whatnow/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	profileRepo := repository.NewProfileRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	settlementSvc := service.NewSettlementService(taskRepo, profileRepo, completionRepo)
	groupSvc := service.NewGroupService(groupRepo)
	leaderboardSvc := service.NewLeaderboardService(groupRepo, profileRepo, completionRepo, leaderboardRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, profileRepo, taskRepo, completionRepo, taskSvc, settlementSvc, groupSvc, leaderboardSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.LeaderboardRefresh, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := leaderboardSvc.Refresh(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("leaderboard refresh: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule leaderboard refresh: %v", err)
	}
	if _, err := scheduler.ScheduleWeekly(time.Monday, "09:00", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendWeeklyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("weekly digest: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule weekly digest: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("WhatNow bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
