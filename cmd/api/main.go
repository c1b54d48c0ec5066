package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"node-metrics/internal/config"
	"node-metrics/internal/repository"
	"node-metrics/internal/router"
	"node-metrics/internal/telemetry"
	"node-metrics/internal/util"
)

const version = "1.0.0"

func LoggerInitialize(cfg config.Logging) (*util.MetricsLogger, error) {

	metricsLogger := &util.MetricsLogger{}

	if err := metricsLogger.Init(cfg.LogConfig()); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return nil, err
	}

	metricsLogger.LogEvent(util.LOG_LEVEL_INFO, "Service started, version", version)

	currentTime := time.Now().Format(time.RFC3339)

	fmt.Fprintf(os.Stderr, "\n%s: Node metrics service %s started \n", currentTime, version)

	return metricsLogger, nil

}

func main() {
	flags, err := config.ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if flags.Version {
		fmt.Println("node-metrics", version)
		return
	}

	cfg, err := config.Load(flags.GetConfigPath(), flags.IsExplicitConfigPath())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if flags.Listen != "" {
		cfg.HTTP.Address = flags.Listen
	}

	logger, err := LoggerInitialize(cfg.Logging)
	if err != nil {
		fmt.Println("Error while initializing the logger..", err)
		return
	}
	defer logger.DeInit()

	metricStore, err := repository.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create metric store: %v", err)
	}

	if err := metricStore.Init(); err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, "Failed to initialize metric store:", err)
		logger.DeInit()
		log.Fatalf("Failed to initialize metric store: %v", err)
	}
	defer metricStore.Close()

	if err := router.Run(context.Background(), cfg, metricStore, logger, telemetry.NewCollectors()); err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, "Server stopped with error:", err)
		log.Printf("Server stopped with error: %v", err)
	}
}
