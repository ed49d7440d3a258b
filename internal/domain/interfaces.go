package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores and caches when a key has no entry.
var ErrNotFound = errors.New("not found")

// Sample is a single labelled row of the training dataset.
type Sample struct {
	Type  string
	Posts string
}

// Indicator is a vocabulary term that carried weight in a prediction.
type Indicator struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// AxisScore is the probability split along one of the four MBTI axes.
type AxisScore struct {
	Axis      string  `json:"axis"`
	Left      string  `json:"left"`
	Right     string  `json:"right"`
	LeftProb  float64 `json:"left_prob"`
	RightProb float64 `json:"right_prob"`
	Dominant  string  `json:"dominant"`
}

// Prediction is the outcome of classifying one text.
type Prediction struct {
	MBTI               string             `json:"mbti"`
	Confidence         float64            `json:"confidence"`
	Probabilities      map[string]float64 `json:"probabilities"`
	Breakdown          []AxisScore        `json:"breakdown"`
	Indicators         []Indicator        `json:"indicators"`
	Description        string             `json:"description,omitempty"`
	CommunicationStyle string             `json:"communication_style,omitempty"`
	ModelID            string             `json:"model_id"`
}

// StoredResult is the last prediction recorded for a user.
type StoredResult struct {
	UserID     string    `json:"user_id"`
	MBTI       string    `json:"mbti"`
	Confidence float64   `json:"confidence"`
	ModelID    string    `json:"model_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PredictRequest is the input of MBTIService.Classify.
type PredictRequest struct {
	Text   string
	UserID string
}

// PredictionCache memoizes predictions by key.
type PredictionCache interface {
	Name() string
	Get(ctx context.Context, key string) (*Prediction, error)
	Set(ctx context.Context, key string, p *Prediction) error
}

// ResultStore persists per-user results.
type ResultStore interface {
	SaveResult(ctx context.Context, r StoredResult) error
	GetResult(ctx context.Context, userID string) (*StoredResult, error)
}

// MBTIService defines the operations exposed by the application core.
type MBTIService interface {
	Classify(ctx context.Context, req PredictRequest) (*Prediction, error)
	UserResult(ctx context.Context, userID string) (*StoredResult, error)
	ModelID() string
}
