package main

import (
	"os"

	"github.com/lenslook/go-backend/internal/app"
	config "github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/pkg/logger"
)

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	ingest, err := app.NewIngestApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize ingest pipeline")
		os.Exit(1)
	}

	if err := ingest.Run(); err != nil {
		os.Exit(1)
	}
}
