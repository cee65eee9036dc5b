package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mkowalski/hypertuner/internal/config"
	"github.com/mkowalski/hypertuner/internal/engine"
	"github.com/mkowalski/hypertuner/internal/export"
	"github.com/mkowalski/hypertuner/internal/history"
	"github.com/mkowalski/hypertuner/internal/metrics"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to search config YAML")
	trials := flag.Int("trials", 0, "override trial budget")
	metric := flag.String("metric", "val_acc", "metric to rank exports by")
	direction := flag.String("direction", "max", "min or max")
	topK := flag.Int("top", 1, "how many models to export")
	format := flag.String("format", "config_weights", "export output type")
	seed := flag.Int64("seed", 1, "demo sampler seed")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *trials > 0 {
		cfg.Budget = *trials
	}

	dir, err := metrics.Parse([]string{*metric + ":" + *direction})
	if err != nil {
		log.Fatalf("bad metric flag: %v", err)
	}
	outputType, err := export.ParseOutputType(*format)
	if err != nil {
		log.Fatalf("bad format flag: %v", err)
	}

	keyMetrics, err := cfg.ParsedKeyMetrics()
	if err != nil {
		log.Fatalf("bad key metrics: %v", err)
	}

	dbPath := envOr("HYPERTUNE_DB", cfg.HistoryDB)
	var store *history.Store
	if dbPath != "" {
		store, err = history.NewStore(dbPath)
		if err != nil {
			log.Fatalf("open history db: %v", err)
		}
		defer store.Close()
	}

	dist := newDemoDistribution(*seed)
	factory := newDemoFactory(dist)
	trainer := newDemoTrainer(*seed)

	tuner, err := engine.New(engine.Config{
		Project:       cfg.Project,
		Architecture:  cfg.Architecture,
		LocalDir:      cfg.LocalDir,
		ExportDir:     cfg.ExportDir,
		TmpDir:        cfg.TmpDir,
		MaxFailStreak: cfg.MaxFailStreak,
		MaxParams:     cfg.MaxParams,
		Budget:        cfg.Budget,
		Settings:      cfg.TrainSettings(),
		KeyMetrics:    keyMetrics,
	}, factory, dist, engine.Collaborators{History: store})
	if err != nil {
		log.Fatalf("create tuner: %v", err)
	}

	tuner.Summary()
	fmt.Printf("Hypertuner ready: project=%s architecture=%s budget=%d\n",
		cfg.Project, cfg.Architecture, cfg.Budget)

	for i := 0; i < cfg.Budget; i++ {
		inst := tuner.NewInstance()
		if inst == nil {
			log.Printf("[MAIN] instance generation exhausted, stopping search")
			break
		}

		res, err := trainer.Train(inst)
		if err != nil {
			log.Printf("[MAIN] training failed for %s: %v", inst.ID, err)
			continue
		}
		if _, err := tuner.RecordResults(inst.ID, res); err != nil {
			log.Printf("[MAIN] record results: %v", err)
		}
	}

	state := tuner.State()
	fmt.Printf("\nSearch finished: trained=%d invalid=%d collisions=%d oversized=%d skipped=%d\n",
		state.NumGeneratedModels, state.NumInvalidModels, state.NumCollisions,
		state.NumOverSizedModels, state.NumPreviouslyTrained)

	if state.NumGeneratedModels > 0 {
		if err := tuner.ExportBestModels(*metric, dir[0].Direction, outputType, *topK); err != nil {
			log.Printf("[MAIN] export failed: %v", err)
		}
	}
	tuner.Done()
}

// #endregion main

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
