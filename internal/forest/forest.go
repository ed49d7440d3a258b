// Package forest implements a random forest of gini CART trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrInvalidParams    = errors.New("invalid forest params")
)

// Config controls forest fitting. Zero values pick the defaults.
type Config struct {
	Trees           int
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 means sqrt(features)
	NoBootstrap     bool
	Seed            int64
	Workers         int
}

func (c Config) withDefaults(features int) Config {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = int(math.Sqrt(float64(features)))
	}
	if c.MaxFeatures < 1 {
		c.MaxFeatures = 1
	}
	if c.MaxFeatures > features {
		c.MaxFeatures = features
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// Node is a split node when Left >= 0, otherwise a leaf holding the class
// distribution of the training samples that reached it.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Dist      []float64 `json:"d,omitempty"`
}

// Tree is a flat pre-order node list rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Params is a trained forest. It is never mutated after Fit.
type Params struct {
	Classes  int    `json:"classes"`
	Features int    `json:"features"`
	Trees    []Tree `json:"trees"`
}

// Fit trains a forest on X with class ids y in [0, classes).
func Fit(ctx context.Context, X [][]float64, y []int, classes int, cfg Config) (*Params, error) {
	if len(X) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%d rows but %d labels", len(X), len(y))
	}
	if classes <= 0 {
		return nil, fmt.Errorf("classes must be positive, got %d", classes)
	}
	features := len(X[0])
	if features == 0 {
		return nil, errors.New("zero-length feature vectors")
	}
	for i, row := range X {
		if len(row) != features {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), features)
		}
		if y[i] < 0 || y[i] >= classes {
			return nil, fmt.Errorf("row %d label %d outside [0,%d)", i, y[i], classes)
		}
	}
	cfg = cfg.withDefaults(features)

	p := &Params{Classes: classes, Features: features, Trees: make([]Tree, cfg.Trees)}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &builder{
				X:       X,
				y:       y,
				classes: classes,
				cfg:     cfg,
				rng:     rand.New(rand.NewSource(cfg.Seed + int64(i))),
				feats:   make([]int, features),
			}
			for f := range b.feats {
				b.feats[f] = f
			}
			p.Trees[i] = b.grow()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// PredictProba returns the mean leaf class distribution over all trees.
func (p *Params) PredictProba(x []float64) []float64 {
	out := make([]float64, p.Classes)
	for i := range p.Trees {
		dist := p.Trees[i].leaf(x)
		for c, v := range dist {
			out[c] += v
		}
	}
	if n := float64(len(p.Trees)); n > 0 {
		for c := range out {
			out[c] /= n
		}
	}
	return out
}

// Predict returns the most probable class, the lowest id on ties.
func (p *Params) Predict(x []float64) int {
	return Argmax(p.PredictProba(x))
}

// Argmax returns the index of the largest value, the first one on ties.
func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// Validate checks a deserialized forest for structural consistency.
func (p *Params) Validate() error {
	if p.Classes <= 0 || p.Features <= 0 {
		return fmt.Errorf("%w: classes=%d features=%d", ErrInvalidParams, p.Classes, p.Features)
	}
	if len(p.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidParams)
	}
	for ti, t := range p.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidParams, ti)
		}
		for ni, n := range t.Nodes {
			if n.Left < 0 {
				if len(n.Dist) != p.Classes {
					return fmt.Errorf("%w: tree %d leaf %d has %d classes", ErrInvalidParams, ti, ni, len(n.Dist))
				}
				continue
			}
			// children always follow their parent, which rules out cycles
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has bad children", ErrInvalidParams, ti, ni)
			}
			if n.Feature < 0 || n.Feature >= p.Features {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d", ErrInvalidParams, ti, ni, n.Feature)
			}
		}
	}
	return nil
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type builder struct {
	X       [][]float64
	y       []int
	classes int
	cfg     Config
	rng     *rand.Rand
	feats   []int
	nodes   []Node
}

func (b *builder) grow() Tree {
	n := len(b.X)
	idx := make([]int, n)
	if b.cfg.NoBootstrap {
		for i := range idx {
			idx[i] = i
		}
	} else {
		for i := range idx {
			idx[i] = b.rng.Intn(n)
		}
	}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) build(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	counts := make([]int, b.classes)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	if b.shouldStop(idx, counts, depth) {
		b.nodes[at].Dist = distribution(counts, len(idx))
		return at
	}
	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[at].Dist = distribution(counts, len(idx))
		return at
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[at].Feature = feature
	b.nodes[at].Threshold = threshold
	b.nodes[at].Left = l
	b.nodes[at].Right = r
	return at
}

func (b *builder) shouldStop(idx []int, counts []int, depth int) bool {
	if len(idx) < b.cfg.MinSamplesSplit || len(idx) < 2*b.cfg.MinSamplesLeaf {
		return true
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return true
	}
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

// bestSplit searches a random subset of features for the threshold that
// minimizes the weighted gini impurity of the two children.
func (b *builder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	n := len(idx)
	var parentSq float64
	for _, c := range counts {
		parentSq += float64(c) * float64(c)
	}
	bestScore := float64(n) - parentSq/float64(n) - 1e-12
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	left := make([]int, b.classes)
	right := make([]int, b.classes)
	minLeaf := b.cfg.MinSamplesLeaf

	// partial Fisher-Yates over the feature ids
	for k := 0; k < b.cfg.MaxFeatures; k++ {
		j := k + b.rng.Intn(len(b.feats)-k)
		b.feats[k], b.feats[j] = b.feats[j], b.feats[k]
		f := b.feats[k]

		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })
		if b.X[sorted[0]][f] == b.X[sorted[n-1]][f] {
			continue
		}
		for c := range left {
			left[c] = 0
		}
		copy(right, counts)
		var leftSq float64
		rightSq := parentSq
		for pos := 0; pos < n-1; pos++ {
			c := b.y[sorted[pos]]
			leftSq += float64(2*left[c] + 1)
			left[c]++
			rightSq -= float64(2*right[c] - 1)
			right[c]--

			nl, nr := pos+1, n-pos-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			v, next := b.X[sorted[pos]][f], b.X[sorted[pos+1]][f]
			if v == next {
				continue
			}
			score := (float64(nl) - leftSq/float64(nl)) + (float64(nr) - rightSq/float64(nr))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = v + (next-v)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func distribution(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for c, k := range counts {
		out[c] = float64(k) / float64(n)
	}
	return out
}
