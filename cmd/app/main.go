package main

import (
	"context"
	"flag"
	"log"
	"os"

	"OddsFlow/internal/di"
	"OddsFlow/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	stage := flag.String("stage", "all", "pipeline stage: all|ingest|transform|views")
	fullRebuild := flag.Bool("full-rebuild", false, "reprocess the entire bronze history")
	serve := flag.Bool("serve", false, "run the ops HTTP server instead of a one-shot stage")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s bookmaker=%s leagues=%d", cfg.Environment, cfg.OddsAPI.Bookmaker, len(cfg.OddsAPI.Leagues))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *serve {
		if err := app.Serve(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.RunStage(context.Background(), *stage, *fullRebuild); err != nil {
		log.Printf("pipeline run failed: %v", err)
		os.Exit(1)
	}
}
