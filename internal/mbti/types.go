// Package mbti describes the 16 personality types used as class labels.
package mbti

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mbti/internal/domain"
)

var ErrInvalidOrder = errors.New("label order is not a permutation of the 16 types")

// Types lists the 16 types alphabetically.
var Types = []string{
	"ENFJ", "ENFP", "ENTJ", "ENTP",
	"ESFJ", "ESFP", "ESTJ", "ESTP",
	"INFJ", "INFP", "INTJ", "INTP",
	"ISFJ", "ISFP", "ISTJ", "ISTP",
}

// Axis is one of the four binary dimensions; position is the letter index.
type Axis struct {
	Name     string
	Left     byte
	Right    byte
	Position int
}

var Axes = []Axis{
	{Name: "E/I", Left: 'E', Right: 'I', Position: 0},
	{Name: "S/N", Left: 'S', Right: 'N', Position: 1},
	{Name: "T/F", Left: 'T', Right: 'F', Position: 2},
	{Name: "J/P", Left: 'J', Right: 'P', Position: 3},
}

// Profile is the human-readable description of a type.
type Profile struct {
	Description        string
	CommunicationStyle string
}

var profiles = map[string]Profile{
	"ISTJ": {"Practical and responsible, prefers structure and planning", "Clear and precise, prefers facts over speculation"},
	"ISFJ": {"Caring and dependable protector", "Warm and supportive responses"},
	"INFJ": {"Creative and insightful visionary", "Thoughtful and empathetic responses"},
	"INTJ": {"Strategic and visionary thinker, prefers long-term planning", "Precise, goal-driven, and analytical"},
	"ISTP": {"Practical and flexible problem-solver", "Direct and action-oriented responses"},
	"ISFP": {"Gentle and creative free spirit", "Warm and artistic responses"},
	"INFP": {"Idealistic and empathetic dreamer", "Thoughtful and values-driven responses"},
	"INTP": {"Logical and innovative thinker", "Analytical and abstract responses"},
	"ESTP": {"Energetic and action-oriented adventurer", "Direct and energetic responses"},
	"ESFP": {"Spontaneous and enthusiastic entertainer", "Playful, lively, and engaging"},
	"ENFP": {"Enthusiastic and creative motivator", "Inspiring and empathetic responses"},
	"ENTP": {"Innovative and curious debater", "Logical and abstract responses"},
	"ESTJ": {"Efficient and organized leader", "Direct and structured responses"},
	"ESFJ": {"Warm and responsible helper", "Supportive and structured responses"},
	"ENFJ": {"Charismatic and inspiring leader", "Supportive and motivating responses"},
	"ENTJ": {"Strategic and decisive commander", "Direct and logical responses"},
}

// Normalize trims and upper-cases a raw label.
func Normalize(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// Valid reports whether t is one of the 16 types.
func Valid(t string) bool {
	_, ok := profiles[t]
	return ok
}

// Lookup returns the profile of t.
func Lookup(t string) (Profile, bool) {
	p, ok := profiles[t]
	return p, ok
}

// Validate checks that order holds each of the 16 types exactly once.
func Validate(order []string) error {
	if len(order) != len(Types) {
		return fmt.Errorf("%w: got %d labels", ErrInvalidOrder, len(order))
	}
	sorted := append([]string(nil), order...)
	sort.Strings(sorted)
	for i, t := range sorted {
		if t != Types[i] {
			return fmt.Errorf("%w: unexpected %q", ErrInvalidOrder, t)
		}
	}
	return nil
}

// Breakdown folds class probabilities into per-axis scores.
func Breakdown(probs map[string]float64) []domain.AxisScore {
	out := make([]domain.AxisScore, 0, len(Axes))
	for _, ax := range Axes {
		var left, right float64
		for t, p := range probs {
			if len(t) != 4 {
				continue
			}
			switch t[ax.Position] {
			case ax.Left:
				left += p
			case ax.Right:
				right += p
			}
		}
		dominant := string(ax.Left)
		if right > left {
			dominant = string(ax.Right)
		}
		out = append(out, domain.AxisScore{
			Axis:      ax.Name,
			Left:      string(ax.Left),
			Right:     string(ax.Right),
			LeftProb:  left,
			RightProb: right,
			Dominant:  dominant,
		})
	}
	return out
}
