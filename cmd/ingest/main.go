package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/pflag"

	"node-metrics/internal/config"
	"node-metrics/internal/domain"
	"node-metrics/internal/repository"
)

type options struct {
	config   string
	nodes    int
	window   time.Duration
	step     time.Duration
	interval time.Duration
}

func parseOptions(args []string) (options, error) {
	var o options

	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	fs.StringVarP(&o.config, "config", "c", "", "path to config file (default "+config.DefaultConfigPath+")")
	fs.IntVar(&o.nodes, "nodes", 3, "number of synthetic nodes")
	fs.DurationVar(&o.window, "window", 5*time.Minute, "trailing window to backfill on each run")
	fs.DurationVar(&o.step, "step", 10*time.Second, "distance between samples of one node")
	fs.DurationVar(&o.interval, "interval", 0, "repeat every interval; 0 runs once")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.nodes < 1 {
		return options{}, fmt.Errorf("--nodes must be at least 1")
	}
	if o.step <= 0 {
		return options{}, fmt.Errorf("--step must be positive")
	}

	return o, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfgPath := opts.config
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath
	}
	cfg, err := config.Load(cfgPath, opts.config != "")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := repository.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create metric store: %v", err)
	}
	if err := store.Init(); err != nil {
		log.Fatalf("Failed to initialize store for ingestion: %v", err)
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.interval <= 0 {
		generateAndIngest(context.Background(), store, rng, opts, time.Now())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Ingesting every %s, press Ctrl+C to stop", opts.interval)
	if err := runPeriodic(ctx, store, rng, opts); err != nil {
		log.Printf("Failed to schedule ingestion: %v", err)
	}
}

// runPeriodic ingests a window right away and then every opts.interval
// until ctx is done.
func runPeriodic(ctx context.Context, s domain.MetricStore, rng *rand.Rand, opts options) error {
	scheduler := gocron.NewScheduler(time.UTC)
	// rng is not safe for concurrent use
	scheduler.SingletonModeAll()

	if _, err := scheduler.Every(opts.interval).Do(func() {
		generateAndIngest(ctx, s, rng, opts, time.Now())
	}); err != nil {
		return err
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	log.Println("Ingestion stopped.")
	return nil
}

// generateSamples returns one sample per node for every step in the window
// ending at end, oldest first.
func generateSamples(rng *rand.Rand, nodes int, window, step time.Duration, end time.Time) []domain.SystemMetric {
	var samples []domain.SystemMetric

	for t := end.Add(-window); !t.After(end); t = t.Add(step) {
		for n := 1; n <= nodes; n++ {
			name := fmt.Sprintf("node-%d", n)
			cpu := rng.Float64() * 100.0
			mem := rng.Float64() * 100.0

			samples = append(samples, domain.SystemMetric{
				NodeName:    &name,
				CPUUsage:    &cpu,
				MemoryUsage: &mem,
				Timestamp:   t,
			})
		}
	}

	return samples
}

func generateAndIngest(ctx context.Context, s domain.MetricStore, rng *rand.Rand, opts options, end time.Time) int {
	samples := generateSamples(rng, opts.nodes, opts.window, opts.step, end)

	log.Printf("Ingesting %d samples from %s to %s...", len(samples), end.Add(-opts.window).Format(time.RFC3339), end.Format(time.RFC3339))

	stored := 0
	for _, metric := range samples {
		if _, err := s.Save(ctx, metric); err != nil {
			log.Printf("Error inserting sample for %s at %s: %v", *metric.NodeName, metric.Timestamp.Format(time.RFC3339), err)
			continue
		}
		stored++
	}

	log.Printf("Data ingestion complete, %d stored.", stored)
	return stored
}
