package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/flowchart/archive"
	"github.com/meikuraledutech/flowchart/internal/config"
	"github.com/meikuraledutech/flowchart/internal/logging"
	"github.com/meikuraledutech/flowchart/internal/metrics"
	"github.com/meikuraledutech/flowchart/postgres"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "."
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.New("error", "text", os.Stderr).Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var archiver *archive.Archiver
	if cfg.ArchiveEnabled() {
		archiver, err = archive.New(ctx, cfg.S3)
		if err != nil {
			log.Error("archive", "error", err)
			os.Exit(1)
		}
		log.Info("archiving exports", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
	}

	app := newApp(postgres.New(pool), archiver, metrics.NewRegistry(), log)

	log.Info("listening", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Error("listen", "error", err)
		os.Exit(1)
	}
}
