package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mbti/internal/domain"
	"mbti/internal/preprocess"
)

// ErrNoStore is returned for user lookups when no result store is set.
var ErrNoStore = errors.New("result store not configured")

// MBTIServiceImpl classifies text with a Predictor, consulting the optional
// cache and recording per-user results in the optional store. Cache and
// store failures are logged and never fail a prediction.
type MBTIServiceImpl struct {
	predictor *Predictor
	cache     domain.PredictionCache
	store     domain.ResultStore
	logger    *slog.Logger
}

// NewMBTIService wires a predictor with its optional collaborators; cache
// and store may be nil.
func NewMBTIService(p *Predictor, cache domain.PredictionCache, store domain.ResultStore, logger *slog.Logger) *MBTIServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &MBTIServiceImpl{predictor: p, cache: cache, store: store, logger: logger}
}

func (s *MBTIServiceImpl) ModelID() string { return s.predictor.ModelID() }

func (s *MBTIServiceImpl) Classify(ctx context.Context, req domain.PredictRequest) (*domain.Prediction, error) {
	if err := s.predictor.Validate(req.Text); err != nil {
		return nil, err
	}
	cleaned := preprocess.Clean(req.Text)
	key := CacheKey(s.predictor.ModelID(), cleaned)

	pred := s.cached(ctx, key)
	if pred == nil {
		var err error
		pred, err = s.predictor.PredictCleaned(cleaned)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, pred); err != nil {
				s.logger.Warn("cache set failed", "cache", s.cache.Name(), "err", err)
			}
		}
	}

	if userID := strings.TrimSpace(req.UserID); userID != "" && s.store != nil {
		res := domain.StoredResult{
			UserID:     userID,
			MBTI:       pred.MBTI,
			Confidence: pred.Confidence,
			ModelID:    pred.ModelID,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := s.store.SaveResult(ctx, res); err != nil {
			s.logger.Warn("save result failed", "user_id", userID, "err", err)
		}
	}
	return pred, nil
}

func (s *MBTIServiceImpl) UserResult(ctx context.Context, userID string) (*domain.StoredResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.GetResult(ctx, userID)
}

func (s *MBTIServiceImpl) cached(ctx context.Context, key string) *domain.Prediction {
	if s.cache == nil {
		return nil
	}
	pred, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("cache get failed", "cache", s.cache.Name(), "err", err)
		}
		return nil
	}
	return pred
}

// CacheKey identifies a prediction by model and cleaned text, so entries
// from an older artifact are never served.
func CacheKey(modelID, cleaned string) string {
	h := sha256.Sum256([]byte(cleaned))
	return "mbti:" + modelID + ":" + hex.EncodeToString(h[:16])
}
