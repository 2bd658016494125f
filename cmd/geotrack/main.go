package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"geotrack/internal/config"
)

func main() {
	var configPath string
	var envFile string
	var summarizePath string
	flag.StringVar(&configPath, "config", "./geotrack.yaml", "Path to YAML config")
	flag.StringVar(&envFile, "env", "", "Optional .env file with GEOTRACK_* overrides (default ./.env if present)")
	flag.StringVar(&summarizePath, "summarize", "", "Print a summary of a track file and exit")
	flag.Parse()

	var envErr error
	if envFile != "" {
		envErr = config.LoadDotEnv(envFile)
	} else {
		envErr = config.LoadDotEnv()
	}
	if envErr != nil {
		log.Fatalf("env load failed: %v", envErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if summarizePath != "" {
		if err := printTrackSummary(ctx, os.Stdout, summarizePath); err != nil {
			log.Fatalf("summarize failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("geotrack starting")
	log.Printf("source kind=%q path=%s targets=%s", cfg.Source.Kind, cfg.Source.Path, cfg.Targets.Path)
	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("geotrack failed: %v", err)
	}
	log.Printf("geotrack done")
}
