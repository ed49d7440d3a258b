// Package testutil builds small deterministic datasets for tests.
package testutil

import (
	"fmt"
	"strings"

	"mbti/internal/domain"
)

// CorpusOrder is the first-seen label order of Corpus. It deliberately
// differs from alphabetical order.
var CorpusOrder = []string{
	"INFJ", "ENTP", "INTP", "INTJ", "ENTJ", "ENFJ", "INFP", "ENFP",
	"ISFP", "ISTP", "ISFJ", "ISTJ", "ESTP", "ESFP", "ESTJ", "ESFJ",
}

var axisWords = map[byte][]string{
	'E': {"party", "crowd", "friends", "festival", "talking"},
	'I': {"solitude", "reading", "quiet", "reflection", "journal"},
	'S': {"practical", "details", "hands", "tangible", "routine"},
	'N': {"future", "philosophical", "possibilities", "abstract", "vision"},
	'T': {"logic", "analysis", "debate", "efficiency", "systems"},
	'F': {"empathy", "feelings", "harmony", "kindness", "values"},
	'J': {"planning", "schedule", "organized", "deadlines", "lists"},
	'P': {"spontaneous", "improvise", "flexible", "adventure", "wander"},
}

// Corpus returns perType samples for each of the 16 types, interleaved so
// labels first appear in CorpusOrder.
func Corpus(perType int) []domain.Sample {
	out := make([]domain.Sample, 0, perType*len(CorpusOrder))
	for i := 0; i < perType; i++ {
		for _, t := range CorpusOrder {
			out = append(out, domain.Sample{Type: t, Posts: posts(t, i)})
		}
	}
	return out
}

func posts(t string, variant int) string {
	var parts []string
	for j := 0; j < len(t); j++ {
		words := axisWords[t[j]]
		a := words[variant%len(words)]
		b := words[(variant+2)%len(words)]
		parts = append(parts, fmt.Sprintf("I really enjoy %s and %s", a, b))
	}
	parts = append(parts, "https://example.com/"+strings.ToLower(t))
	return "'" + strings.Join(parts, "|||") + "'"
}

// CSV renders samples in the dataset's two-column layout.
func CSV(samples []domain.Sample) string {
	var b strings.Builder
	b.WriteString("type,posts\n")
	for _, s := range samples {
		b.WriteString(s.Type)
		b.WriteString(",\"")
		b.WriteString(strings.ReplaceAll(s.Posts, `"`, `""`))
		b.WriteString("\"\n")
	}
	return b.String()
}
