package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"TraderBlock/internal/di"
	"TraderBlock/pkg/config"
	"TraderBlock/pkg/server"
)

var app *server.App

// Cold start builds the App once; warm invocations reuse its cache and
// upstream clients.
func init() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	// Only the refresh cycle runs here.
	cfg.Scheduler.Enabled = false
	cfg.Stream.Enabled = false

	app, err = di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
}

type result struct {
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func handler(ctx context.Context) (result, error) {
	start := time.Now()
	if err := app.RunOnce(ctx); err != nil {
		// Partial failures still refreshed the other tickers.
		return result{Status: "partial", Duration: time.Since(start).String(), Error: err.Error()}, nil
	}
	return result{Status: "ok", Duration: time.Since(start).String()}, nil
}

func main() {
	lambda.Start(handler)
}
