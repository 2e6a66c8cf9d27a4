package main

import (
	"flag"
	"log"
	"os"

	"TraderBlock/internal/di"
	"TraderBlock/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s provider=%s snapshot=%s", cfg.Environment, cfg.Upstream.Provider, cfg.Cache.Snapshot.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if cfg.Kafka.Enabled {
		log.Printf("kafka: brokers=%v events=%s refresh=%s", cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.RefreshTopic)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
