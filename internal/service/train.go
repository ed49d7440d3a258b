package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mbti/internal/dataset"
	"mbti/internal/domain"
	"mbti/internal/encoder"
	"mbti/internal/forest"
	"mbti/internal/labels"
	"mbti/internal/model"
	"mbti/internal/preprocess"
)

// TrainConfig bundles every knob of a training run.
type TrainConfig struct {
	Encoder  encoder.Config
	Forest   forest.Config
	TestSize float64
	Seed     int64
}

// Train fits the label codec, encoder and forest on samples and returns
// the resulting artifact. Accuracy is measured on a seeded held-out split.
func Train(ctx context.Context, samples []domain.Sample, cfg TrainConfig, logger *slog.Logger) (*model.Artifact, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(samples) == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	start := time.Now()

	texts := preprocess.CleanAll(dataset.Posts(samples))
	rawLabels := dataset.Labels(samples)
	codec, err := labels.FromCorpus(rawLabels)
	if err != nil {
		return nil, fmt.Errorf("build label codec: %w", err)
	}
	y, err := codec.EncodeAll(rawLabels)
	if err != nil {
		return nil, err
	}
	logger.Info("cleaned corpus", "samples", len(samples), "classes", codec.Len(), "labels", codec.Labels())

	enc, err := encoder.Fit(texts, cfg.Encoder)
	if err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}
	X := enc.TransformAll(texts)
	logger.Info("fitted encoder", "vocabulary", enc.Dimension())

	trainIdx, testIdx := dataset.Split(len(samples), cfg.TestSize, cfg.Seed)
	Xtr, ytr := pick(X, y, trainIdx)
	Xte, yte := pick(X, y, testIdx)

	params, err := forest.Fit(ctx, Xtr, ytr, codec.Len(), cfg.Forest)
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	metrics := model.Metrics{TrainSamples: len(Xtr), TestSamples: len(Xte), Accuracy: Accuracy(params, Xte, yte)}
	logger.Info("fitted forest",
		"trees", len(params.Trees),
		"train", metrics.TrainSamples,
		"test", metrics.TestSamples,
		"accuracy", metrics.Accuracy,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	a := model.New(enc, codec, params, metrics)
	if err := a.Verify(); err != nil {
		return nil, fmt.Errorf("verify artifact: %w", err)
	}
	return a, nil
}

// Accuracy is the share of rows the forest labels correctly; 0 for no rows.
func Accuracy(p *forest.Params, X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i := range X {
		if p.Predict(X[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func pick(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
