// Package labels maps class labels to the integer ids the classifier uses.
package labels

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidIndex = errors.New("label index out of range")
	ErrUnknownLabel = errors.New("unknown label")
	ErrEmptyCodec   = errors.New("label codec has no labels")
)

// Codec is an immutable bidirectional mapping between labels and ids.
type Codec struct {
	order []string
	index map[string]int
}

// New builds a codec from a persisted order.
func New(order []string) (*Codec, error) {
	if len(order) == 0 {
		return nil, ErrEmptyCodec
	}
	c := &Codec{order: make([]string, len(order)), index: make(map[string]int, len(order))}
	for i, l := range order {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("empty label at position %d", i)
		}
		if _, dup := c.index[l]; dup {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		c.order[i] = l
		c.index[l] = i
	}
	return c, nil
}

// FromCorpus builds a codec whose order is the first-seen order of labels.
func FromCorpus(labels []string) (*Codec, error) {
	seen := make(map[string]struct{})
	var order []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		order = append(order, l)
	}
	return New(order)
}

// Len returns the number of classes.
func (c *Codec) Len() int { return len(c.order) }

// Encode returns the class id of label.
func (c *Codec) Encode(label string) (int, error) {
	i, ok := c.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return i, nil
}

// EncodeAll encodes every label, failing on the first unknown one.
func (c *Codec) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		id, err := c.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// Decode returns the label of class id index.
func (c *Codec) Decode(index int) (string, error) {
	if index < 0 || index >= len(c.order) {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidIndex, index, len(c.order))
	}
	return c.order[index], nil
}

// Labels returns a copy of the canonical order.
func (c *Codec) Labels() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
