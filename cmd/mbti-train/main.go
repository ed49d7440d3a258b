package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"mbti/internal/config"
	"mbti/internal/dataset"
	"mbti/internal/encoder"
	"mbti/internal/forest"
	"mbti/internal/labels"
	"mbti/internal/model"
	"mbti/internal/service"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dataPath, outPath string
	var printOrder bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/mbti/config.yaml if not provided)")
	flag.StringVar(&dataPath, "data", "", "Training CSV with type and posts columns (overrides config)")
	flag.StringVar(&outPath, "out", "", "Where to write the model artifact (overrides config)")
	flag.BoolVar(&printOrder, "print-order", false, "Print the label order of the dataset and exit")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if dataPath != "" {
		cfg.Dataset.Path = dataPath
	}
	if outPath != "" {
		cfg.Artifact.Path = outPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	samples, err := dataset.Load(cfg.Dataset.Path, dataset.Options{
		TypeColumn:  cfg.Dataset.TypeColumn,
		PostsColumn: cfg.Dataset.PostsColumn,
	})
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	logger.Info("loaded dataset", "path", cfg.Dataset.Path, "samples", len(samples))

	if printOrder {
		codec, err := labels.FromCorpus(dataset.Labels(samples))
		if err != nil {
			log.Fatalf("label order: %v", err)
		}
		order := codec.Labels()
		fmt.Println("first-seen order:", strings.Join(order, " "))
		sort.Strings(order)
		fmt.Println("sorted order:    ", strings.Join(order, " "))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := service.Train(ctx, samples, service.TrainConfig{
		Encoder: encoder.Config{
			MaxFeatures: cfg.Encoder.MaxFeatures,
			Normalize:   cfg.Encoder.Normalize,
		},
		Forest: forest.Config{
			Trees:           cfg.Forest.Trees,
			MaxDepth:        cfg.Forest.MaxDepth,
			MinSamplesSplit: cfg.Forest.MinSamplesSplit,
			MinSamplesLeaf:  cfg.Forest.MinSamplesLeaf,
			MaxFeatures:     cfg.Forest.MaxFeatures,
			Seed:            cfg.Forest.Seed,
			Workers:         cfg.Forest.Workers,
		},
		TestSize: cfg.Training.TestSize,
		Seed:     cfg.Training.Seed,
	}, logger)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	if err := model.Save(cfg.Artifact.Path, a); err != nil {
		log.Fatalf("save artifact: %v", err)
	}
	log.Printf("model %s saved to %s (accuracy %.3f on %d held-out samples)",
		a.ModelID, cfg.Artifact.Path, a.Metrics.Accuracy, a.Metrics.TestSamples)
}
