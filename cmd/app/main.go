package main

import (
	"flag"
	"log"
	"os"

	"CardPull/internal/di"
	"CardPull/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "predict", "pipeline mode: train, predict, or collect")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s provider=%s", cfg.Environment, *mode, cfg.PriceSource.Provider)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s\n", cfg.ClickHouse.Database)

	// Run pipeline (blocks until finished or interrupted)
	if err := app.Run(*mode); err != nil {
		log.Printf("run error: %v", err)
		os.Exit(1)
	}
}
