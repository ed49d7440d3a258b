package forest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelledData labels rows by the first feature; the others are noise.
func labelledData() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		a := float64(i % 2)
		noise := float64(i%5) * 0.01
		X = append(X, []float64{a + noise, float64((i/2)%2) - noise, noise})
		y = append(y, int(a))
	}
	return X, y
}

func TestFitLearnsTrainingData(t *testing.T) {
	X, y := labelledData()
	p, err := Fit(context.Background(), X, y, 2, Config{Trees: 25, MaxFeatures: 2, Seed: 7})
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	correct := 0
	for i := range X {
		if p.Predict(X[i]) == y[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 36)
}

func TestPredictProbaIsDistribution(t *testing.T) {
	X, y := labelledData()
	p, err := Fit(context.Background(), X, y, 3, Config{Trees: 10, Seed: 1})
	require.NoError(t, err)
	probs := p.PredictProba([]float64{1, 0, 0})
	require.Len(t, probs, 3)
	var sum float64
	for _, v := range probs {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// class 2 never occurs in training
	assert.Zero(t, probs[2])
}

func TestFitIsReproducible(t *testing.T) {
	X, y := labelledData()
	cfg := Config{Trees: 8, Seed: 42, Workers: 3}
	a, err := Fit(context.Background(), X, y, 2, cfg)
	require.NoError(t, err)
	cfg.Workers = 1
	b, err := Fit(context.Background(), X, y, 2, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, err := Fit(ctx, nil, nil, 2, Config{})
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
	_, err = Fit(ctx, [][]float64{{1}}, []int{0, 1}, 2, Config{})
	assert.Error(t, err)
	_, err = Fit(ctx, [][]float64{{1}, {1, 2}}, []int{0, 1}, 2, Config{})
	assert.Error(t, err)
	_, err = Fit(ctx, [][]float64{{1}}, []int{5}, 2, Config{})
	assert.Error(t, err)
}

func TestFitHonoursCancellation(t *testing.T) {
	X, y := labelledData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fit(ctx, X, y, 2, Config{Trees: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParamsRoundTrip(t *testing.T) {
	X, y := labelledData()
	p, err := Fit(context.Background(), X, y, 2, Config{Trees: 5, Seed: 3})
	require.NoError(t, err)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	var loaded Params
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.NoError(t, loaded.Validate())
	for _, x := range X {
		assert.Equal(t, p.PredictProba(x), loaded.PredictProba(x))
	}
}

func TestValidateRejectsBrokenTrees(t *testing.T) {
	assert.ErrorIs(t, (&Params{}).Validate(), ErrInvalidParams)

	leaf := Node{Left: -1, Right: -1, Dist: []float64{1, 0}}
	cyclic := &Params{Classes: 2, Features: 1, Trees: []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, leaf}}}}
	assert.ErrorIs(t, cyclic.Validate(), ErrInvalidParams)

	badFeature := &Params{Classes: 2, Features: 1, Trees: []Tree{{Nodes: []Node{{Feature: 4, Left: 1, Right: 2}, leaf, leaf}}}}
	assert.ErrorIs(t, badFeature.Validate(), ErrInvalidParams)

	badLeaf := &Params{Classes: 3, Features: 1, Trees: []Tree{{Nodes: []Node{leaf}}}}
	assert.ErrorIs(t, badLeaf.Validate(), ErrInvalidParams)
}

func TestArgmaxPrefersLowestOnTies(t *testing.T) {
	assert.Equal(t, 1, Argmax([]float64{0.2, 0.4, 0.4}))
	assert.Equal(t, 0, Argmax([]float64{0.5, 0.5}))
}
