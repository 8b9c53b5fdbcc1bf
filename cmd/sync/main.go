package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/knesset"
	applog "knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
	"knesset-pulse/internal/service"
)

// One-shot sync runner for manual or out-of-process scheduled use.
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

	syncSvc := service.NewSyncService(db, knesset.NewClient(cfg.Knesset))
	res, err := syncSvc.Run(context.Background())
	if err != nil {
		slog.Error("sync failed", "err", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}
