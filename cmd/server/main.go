package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"devfolio/internal/app"
	"devfolio/internal/logger"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg := app.ConfigFromEnv()
	// Allow overriding port via PORT env (useful for platforms)
	if p := os.Getenv("PORT"); p != "" {
		*addr = ":" + p
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := app.NewServer(cfg, log)
	if err != nil {
		fmt.Printf("failed to initialize server: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	if err := srv.Run(*addr); err != nil {
		fmt.Printf("server exited with error: %v\n", err)
		os.Exit(1)
	}
}
