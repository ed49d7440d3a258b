// Package model persists the trained encoder, label order and forest as
// one versioned artifact.
package model

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mbti/internal/encoder"
	"mbti/internal/forest"
	"mbti/internal/labels"
	"mbti/internal/mbti"
)

// SchemaVersion is bumped whenever the artifact layout changes.
const SchemaVersion = 1

var (
	ErrSchemaVersion    = errors.New("unsupported artifact schema version")
	ErrArtifactMismatch = errors.New("artifact components do not agree")
)

// Metrics summarizes the training run that produced an artifact.
type Metrics struct {
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	Accuracy     float64 `json:"accuracy"`
}

// Artifact is everything serving needs, written and read as a unit so
// the vocabulary, label order and classifier cannot drift apart.
type Artifact struct {
	SchemaVersion int            `json:"schema_version"`
	ModelID       string         `json:"model_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Encoder       *encoder.State `json:"encoder"`
	Labels        []string       `json:"labels"`
	Forest        *forest.Params `json:"forest"`
	Metrics       Metrics        `json:"metrics"`
}

// New stamps a fresh artifact with the current schema version and an id.
func New(enc *encoder.State, codec *labels.Codec, f *forest.Params, m Metrics) *Artifact {
	return &Artifact{
		SchemaVersion: SchemaVersion,
		ModelID:       uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Encoder:       enc,
		Labels:        codec.Labels(),
		Forest:        f,
		Metrics:       m,
	}
}

// Verify checks the artifact's components individually and against each
// other.
func (a *Artifact) Verify() error {
	if a.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, a.SchemaVersion, SchemaVersion)
	}
	if a.Encoder == nil || a.Forest == nil {
		return fmt.Errorf("%w: missing encoder or forest", ErrArtifactMismatch)
	}
	if err := a.Encoder.Validate(); err != nil {
		return err
	}
	if err := a.Forest.Validate(); err != nil {
		return err
	}
	if err := mbti.Validate(a.Labels); err != nil {
		return err
	}
	if _, err := labels.New(a.Labels); err != nil {
		return err
	}
	if a.Forest.Classes != len(a.Labels) {
		return fmt.Errorf("%w: forest has %d classes, %d labels", ErrArtifactMismatch, a.Forest.Classes, len(a.Labels))
	}
	if a.Forest.Features != a.Encoder.Dimension() {
		return fmt.Errorf("%w: forest expects %d features, encoder yields %d", ErrArtifactMismatch, a.Forest.Features, a.Encoder.Dimension())
	}
	return nil
}

// Codec rebuilds the label codec from the persisted order.
func (a *Artifact) Codec() (*labels.Codec, error) {
	return labels.New(a.Labels)
}

// Write encodes a as gzip-compressed JSON.
func Write(w io.Writer, a *Artifact) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	return nil
}

// Read decodes and verifies an artifact.
func Read(r io.Reader) (*Artifact, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer zr.Close()
	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Verify(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes a to path atomically.
func Save(path string, a *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.model")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if err := Write(tmp, a); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp artifact: %w", err)
	}
	return nil
}

// Load reads and verifies the artifact at path.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Read(f)
}
