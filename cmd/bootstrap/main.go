// Command bootstrap writes an unfitted placeholder artifact for every
// configured symbol that has none. Existing artifacts are left as they are.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"PriceCast/internal/di"
	"PriceCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "optional dotenv file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	b, cleanup, err := di.InitializeBootstrap(cfg)
	if err != nil {
		log.Fatalf("bootstrap initialization failed: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := b.Run(ctx)
	log.Printf("placeholders created=%v existing=%v", res.Created, res.Existing)
	if err != nil {
		log.Printf("bootstrap failed: %v", err)
		cancel()
		cleanup()
		os.Exit(1)
	}
}
