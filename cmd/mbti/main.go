package main

import (
	"flag"
	"io"
	"log"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"mbti/internal/config"
	"mbti/internal/model"
	"mbti/internal/service"
	"mbti/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, modelPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/mbti/config.yaml if not provided)")
	flag.StringVar(&modelPath, "model", "", "Model artifact to load (overrides config)")
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
	if modelPath != "" {
		cfg.Artifact.Path = modelPath
	}

	artifact, err := model.Load(cfg.Artifact.Path)
	if err != nil {
		log.Fatalf("load model artifact: %v", err)
	}
	predictor, err := service.NewPredictor(artifact, cfg.Server.MinTextLength)
	if err != nil {
		log.Fatalf("init predictor: %v", err)
	}
	// the terminal belongs to the TUI
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewMBTIService(predictor, nil, nil, logger)

	if _, err := tea.NewProgram(tui.New(svc), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
