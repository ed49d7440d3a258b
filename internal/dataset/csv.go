// Package dataset loads labelled posts from the training CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"mbti/internal/domain"
	"mbti/internal/mbti"
)

var (
	ErrMissingColumn = errors.New("dataset is missing a required column")
	ErrInvalidLabel  = errors.New("dataset row has an invalid label")
	ErrEmptyDataset  = errors.New("dataset has no rows")
)

// Options names the label and text columns.
type Options struct {
	TypeColumn  string
	PostsColumn string
}

func (o Options) withDefaults() Options {
	if o.TypeColumn == "" {
		o.TypeColumn = "type"
	}
	if o.PostsColumn == "" {
		o.PostsColumn = "posts"
	}
	return o
}

// Load reads samples from the CSV file at path.
func Load(path string, opts Options) ([]domain.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read parses samples from CSV with a header row. Labels are normalized
// and must be one of the 16 types.
func Read(r io.Reader, opts Options) ([]domain.Sample, error) {
	opts = opts.withDefaults()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	typeCol, postsCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case strings.ToLower(opts.TypeColumn):
			typeCol = i
		case strings.ToLower(opts.PostsColumn):
			postsCol = i
		}
	}
	if typeCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.TypeColumn)
	}
	if postsCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.PostsColumn)
	}

	var out []domain.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if typeCol >= len(rec) || postsCol >= len(rec) {
			return nil, fmt.Errorf("row %d: %d fields", line, len(rec))
		}
		label := mbti.Normalize(rec[typeCol])
		if !mbti.Valid(label) {
			return nil, fmt.Errorf("%w: row %d %q", ErrInvalidLabel, line, rec[typeCol])
		}
		out = append(out, domain.Sample{Type: label, Posts: rec[postsCol]})
	}
	if len(out) == 0 {
		return nil, ErrEmptyDataset
	}
	return out, nil
}

// Split shuffles 0..n-1 with seed and returns the train and test indices.
// The test share is rounded up; both parts keep at least one row when n > 1.
func Split(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	if testSize <= 0 || n < 2 {
		return perm, nil
	}
	k := int(testSize*float64(n) + 0.999999)
	if k < 1 {
		k = 1
	}
	if k >= n {
		k = n - 1
	}
	return perm[k:], perm[:k]
}

// Labels returns the label column of samples.
func Labels(samples []domain.Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Type
	}
	return out
}

// Posts returns the text column of samples.
func Posts(samples []domain.Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Posts
	}
	return out
}
