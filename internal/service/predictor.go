package service

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"mbti/internal/domain"
	"mbti/internal/encoder"
	"mbti/internal/forest"
	"mbti/internal/labels"
	"mbti/internal/mbti"
	"mbti/internal/model"
	"mbti/internal/preprocess"
)

// DefaultMinTextLength is the shortest raw text, in characters, accepted
// for prediction.
const DefaultMinTextLength = 20

const indicatorCount = 5

var (
	ErrInvalidText  = errors.New("invalid text")
	ErrTextRequired = fmt.Errorf("%w: text is required", ErrInvalidText)
	ErrTextTooShort = fmt.Errorf("%w: text is too short", ErrInvalidText)
)

// Predictor holds the loaded artifact's components. It is built once at
// startup and only read afterwards, so it is safe for concurrent use.
type Predictor struct {
	modelID string
	enc     *encoder.State
	codec   *labels.Codec
	forest  *forest.Params
	minLen  int
}

// NewPredictor verifies a and wraps its components.
func NewPredictor(a *model.Artifact, minTextLength int) (*Predictor, error) {
	if err := a.Verify(); err != nil {
		return nil, err
	}
	codec, err := a.Codec()
	if err != nil {
		return nil, err
	}
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Predictor{modelID: a.ModelID, enc: a.Encoder, codec: codec, forest: a.Forest, minLen: minTextLength}, nil
}

// ModelID identifies the artifact the predictor was built from.
func (p *Predictor) ModelID() string { return p.modelID }

// Validate rejects raw text that is empty or shorter than the minimum.
func (p *Predictor) Validate(text string) error {
	if text == "" {
		return ErrTextRequired
	}
	if n := utf8.RuneCountInString(text); n < p.minLen {
		return fmt.Errorf("%w (%d < %d characters)", ErrTextTooShort, n, p.minLen)
	}
	return nil
}

// Predict runs clean, transform, classify and decode on raw text.
func (p *Predictor) Predict(text string) (*domain.Prediction, error) {
	if err := p.Validate(text); err != nil {
		return nil, err
	}
	return p.PredictCleaned(preprocess.Clean(text))
}

// PredictCleaned classifies text that has already been through
// preprocess.Clean.
func (p *Predictor) PredictCleaned(cleaned string) (*domain.Prediction, error) {
	vec := p.enc.Transform(cleaned)
	proba := p.forest.PredictProba(vec)
	idx := forest.Argmax(proba)
	label, err := p.codec.Decode(idx)
	if err != nil {
		return nil, err
	}

	probs := make(map[string]float64, len(proba))
	for i, v := range proba {
		l, err := p.codec.Decode(i)
		if err != nil {
			return nil, err
		}
		probs[l] = v
	}
	var indicators []domain.Indicator
	for _, t := range p.enc.TopTerms(cleaned, indicatorCount) {
		indicators = append(indicators, domain.Indicator{Term: t.Term, Weight: t.Weight})
	}
	prof, _ := mbti.Lookup(label)
	return &domain.Prediction{
		MBTI:               label,
		Confidence:         proba[idx],
		Probabilities:      probs,
		Breakdown:          mbti.Breakdown(probs),
		Indicators:         indicators,
		Description:        prof.Description,
		CommunicationStyle: prof.CommunicationStyle,
		ModelID:            p.modelID,
	}, nil
}
