package encoder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbti/internal/preprocess"
	"mbti/internal/testutil"
)

func cleanedCorpus(t *testing.T) []string {
	t.Helper()
	var texts []string
	for _, s := range testutil.Corpus(3) {
		texts = append(texts, preprocess.Clean(s.Posts))
	}
	return texts
}

func TestFitEmptyCorpus(t *testing.T) {
	_, err := Fit(nil, Config{})
	require.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = Fit([]string{"", "a"}, Config{})
	require.ErrorIs(t, err, ErrNoTokens)
}

func TestFitVocabulary(t *testing.T) {
	s, err := Fit([]string{"apple apple banana", "banana cherry", "apple date the"}, Config{MaxFeatures: 3})
	require.NoError(t, err)
	// top three by frequency, then sorted; "the" is a stop-word
	assert.Equal(t, []string{"apple", "banana", "cherry"}, s.Vocabulary)
	require.Len(t, s.IDF, 3)
	// apple appears in 2 of 3 documents, cherry in 1
	assert.Less(t, s.IDF[0], s.IDF[2])
	assert.InDelta(t, 1.2876820724517808, s.IDF[0], 1e-12)
}

func TestFitIsDeterministic(t *testing.T) {
	corpus := cleanedCorpus(t)
	a, err := Fit(corpus, Config{MaxFeatures: 20, Normalize: true})
	require.NoError(t, err)
	b, err := Fit(corpus, Config{MaxFeatures: 20, Normalize: true})
	require.NoError(t, err)
	assert.Equal(t, a.Vocabulary, b.Vocabulary)
	assert.Equal(t, a.IDF, b.IDF)
}

func TestTransformLength(t *testing.T) {
	s, err := Fit(cleanedCorpus(t), Config{MaxFeatures: 25, Normalize: true})
	require.NoError(t, err)
	k := s.Dimension()
	require.LessOrEqual(t, k, 25)

	zero := s.Transform("")
	require.Len(t, zero, k)
	for _, v := range zero {
		assert.Zero(t, v)
	}
	assert.Len(t, s.Transform("completely unknown words everywhere"), k)
	assert.Len(t, s.Transform(preprocess.Clean("I love long philosophical discussions about the future of humanity and technology")), k)
}

func TestTransformNormalized(t *testing.T) {
	s, err := Fit([]string{"alpha beta", "beta gamma"}, Config{Normalize: true})
	require.NoError(t, err)
	vec := s.Transform("alpha beta beta")
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	raw, err := Fit([]string{"alpha beta", "beta gamma"}, Config{})
	require.NoError(t, err)
	rv := raw.Transform("beta beta")
	assert.InDelta(t, 2*raw.IDF[1], rv[1], 1e-12)
}

func TestStateRoundTrip(t *testing.T) {
	s, err := Fit(cleanedCorpus(t), Config{MaxFeatures: 30, Normalize: true})
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var loaded State
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.NoError(t, loaded.Validate())

	for _, text := range cleanedCorpus(t) {
		assert.Equal(t, s.Transform(text), loaded.Transform(text))
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&State{}).Validate(), ErrInvalidState)
	assert.ErrorIs(t, (&State{Vocabulary: []string{"a"}, IDF: []float64{1, 2}}).Validate(), ErrInvalidState)
	assert.ErrorIs(t, (&State{Vocabulary: []string{"ab", "ab"}, IDF: []float64{1, 1}}).Validate(), ErrInvalidState)
}

func TestTopTerms(t *testing.T) {
	s, err := Fit([]string{"alpha beta", "beta gamma", "beta delta"}, Config{Normalize: true})
	require.NoError(t, err)
	top := s.TopTerms("alpha alpha beta", 1)
	require.Len(t, top, 1)
	assert.Equal(t, "alpha", top[0].Term)
	assert.Nil(t, s.TopTerms("alpha", 0))
	assert.Empty(t, s.TopTerms("", 3))
}
