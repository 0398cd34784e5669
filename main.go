package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flightdelay/config"
	qhttp "flightdelay/http"
	"flightdelay/logging"
	"flightdelay/ml"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 2. The model is loaded on the first prediction request
	provider := ml.NewProvider(func() (ml.Predictor, error) {
		model, err := ml.New(ml.WithCheckpoint(cfg.Model.Checkpoint), ml.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if cfg.Model.CacheSize <= 0 {
			return model, nil
		}
		cached, err := ml.NewCachedPredictor(model, cfg.Model.CacheSize)
		if err != nil {
			return nil, err
		}
		return cached, nil
	})

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, provider, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
