package encoder

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
)

// DefaultMaxFeatures is the vocabulary size used when Config leaves it unset.
const DefaultMaxFeatures = 1500

var (
	ErrEmptyCorpus  = errors.New("empty corpus for encoder fit")
	ErrNoTokens     = errors.New("no tokens found in corpus")
	ErrInvalidState = errors.New("invalid encoder state")
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Config controls how the vocabulary is fitted.
type Config struct {
	MaxFeatures int  `yaml:"max_features"`
	Normalize   bool `yaml:"normalize"`
}

// State is the fitted vocabulary plus IDF weights. It is produced once at
// training time and shipped unmodified to serving.
type State struct {
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`
	Normalize  bool      `json:"normalize"`

	index map[string]int
}

// Fit builds the vocabulary of the most frequent tokens in corpus and the
// smoothed IDF of each. Texts are expected to be cleaned already.
func Fit(corpus []string, cfg Config) (*State, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	tf := make(map[string]int)
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			tf[tok]++
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(tf) == 0 {
		return nil, ErrNoTokens
	}

	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	// most frequent first, ties broken lexicographically
	sort.Slice(terms, func(i, j int) bool {
		if tf[terms[i]] != tf[terms[j]] {
			return tf[terms[i]] > tf[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	s := &State{Vocabulary: terms, IDF: idf, Normalize: cfg.Normalize}
	s.buildIndex()
	return s, nil
}

// Dimension returns the length of every vector produced by Transform.
func (s *State) Dimension() int { return len(s.Vocabulary) }

// Transform encodes cleaned text into a TF-IDF vector of length Dimension.
// Tokens outside the vocabulary are ignored; empty text yields a zero vector.
func (s *State) Transform(text string) []float64 {
	idx := s.lookup()
	vec := make([]float64, len(s.Vocabulary))
	for _, tok := range tokenize(text) {
		if i, ok := idx[tok]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i, c := range vec {
		if c == 0 {
			continue
		}
		vec[i] = c * s.IDF[i]
		norm += vec[i] * vec[i]
	}
	if s.Normalize && norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// TransformAll encodes every text in texts.
func (s *State) TransformAll(texts []string) [][]float64 {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.Transform(t)
	}
	return out
}

// Term is a vocabulary entry with its weight in a particular text.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopTerms returns up to n vocabulary terms of text with the largest weight.
func (s *State) TopTerms(text string, n int) []Term {
	if n <= 0 {
		return nil
	}
	vec := s.Transform(text)
	terms := make([]Term, 0)
	for i, w := range vec {
		if w > 0 {
			terms = append(terms, Term{Term: s.Vocabulary[i], Weight: w})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// Validate checks a loaded state for internal consistency.
func (s *State) Validate() error {
	if len(s.Vocabulary) == 0 {
		return fmt.Errorf("%w: empty vocabulary", ErrInvalidState)
	}
	if len(s.Vocabulary) != len(s.IDF) {
		return fmt.Errorf("%w: %d terms but %d idf weights", ErrInvalidState, len(s.Vocabulary), len(s.IDF))
	}
	seen := make(map[string]struct{}, len(s.Vocabulary))
	for _, term := range s.Vocabulary {
		if _, dup := seen[term]; dup {
			return fmt.Errorf("%w: duplicate term %q", ErrInvalidState, term)
		}
		seen[term] = struct{}{}
	}
	s.buildIndex()
	return nil
}

func (s *State) buildIndex() {
	s.index = make(map[string]int, len(s.Vocabulary))
	for i, term := range s.Vocabulary {
		s.index[term] = i
	}
}

// lookup returns the term index, building it on first use after a decode.
// States are shared read-only, so callers that deserialize one should call
// Validate (which builds the index) before handing it to concurrent readers.
func (s *State) lookup() map[string]int {
	if s.index == nil {
		s.buildIndex()
	}
	return s.index
}

func tokenize(text string) []string {
	var out []string
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if _, stop := encoderStopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}
