package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/handler"
	"knesset-pulse/internal/knesset"
	applog "knesset-pulse/internal/logger"
	"knesset-pulse/internal/middleware"
	"knesset-pulse/internal/model"
	"knesset-pulse/internal/search"
	"knesset-pulse/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	applog.Init(cfg.Log)
	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&model.Member{}, &model.WeeklyStat{}); err != nil {
		slog.Warn("auto migrate failed", "err", err)
	}

	kClient := knesset.NewClient(cfg.Knesset)
	searchClient := search.NewClient(cfg.Search)
	aiSvc := service.NewAIService(cfg.AI)
	syncSvc := service.NewSyncService(db, kClient)
	statsSvc := service.NewStatsService(db)
	answerSvc := service.NewAnswerService(aiSvc, searchClient, kClient)
	newsSvc := service.NewNewsService(aiSvc, statsSvc, cfg.News)

	chatH := handler.NewChatHandler(answerSvc)
	knessetH := handler.NewKnessetHandler(syncSvc, statsSvc, kClient)
	newsH := handler.NewNewsHandler(newsSvc)

	if cfg.Cron.Enabled {
		sched := cron.New()
		if _, err := sched.AddFunc(cfg.Cron.Spec, func() {
			if _, err := syncSvc.Run(context.Background()); err != nil {
				slog.Error("scheduled sync failed", "err", err)
			}
		}); err != nil {
			slog.Error("cron schedule invalid", "spec", cfg.Cron.Spec, "err", err)
			os.Exit(1)
		}
		sched.Start()
		slog.Info("weekly sync scheduled", "spec", cfg.Cron.Spec)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	api.POST("/chat", chatH.Chat)
	api.POST("/chat/stream", chatH.ChatStream)
	api.POST("/knesset/sync", knessetH.Sync)
	api.GET("/cron/weekly-update", middleware.CronSecret(cfg.Cron.Secret), knessetH.WeeklyUpdate)
	api.GET("/weekly-top", knessetH.WeeklyTop)
	api.GET("/mk-weekly-stats", knessetH.WeeklyStats)
	api.GET("/knesset/weekly-report", knessetH.WeeklyReport)
	api.GET("/knesset-data", knessetH.DataSearch)
	api.GET("/news", newsH.Posts)

	slog.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
	}
}
