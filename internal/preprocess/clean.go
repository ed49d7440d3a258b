package preprocess

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Clean normalizes raw post text into the form both training and serving
// feed to the feature encoder. It is a pure function of its input.
//
// Steps: lowercase, drop URLs, replace non-word runs with a space,
// collapse whitespace, drop English stop-words.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = nonWordPattern.ReplaceAllString(text, " ")
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		if IsStopword(f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// CleanAll applies Clean to every element of texts.
func CleanAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Clean(t)
	}
	return out
}

// IsStopword reports whether word is in the English stop-word set.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
