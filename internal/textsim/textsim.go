// Package textsim compares short prose passages, such as review comments,
// by cosine similarity over term-frequency vectors. Tokenization lowercases,
// splits on non-alphanumeric runs, and drops tokens shorter than three
// characters.
package textsim

import (
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Vector is a normalized term-frequency vector.
type Vector struct {
	terms map[string]float64
	norm  float64
}

// NewVector builds a vector from text. Text with no usable tokens yields nil.
func NewVector(text string) *Vector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		terms[token]++
	}
	var norm float64
	for _, count := range terms {
		norm += count * count
	}
	return &Vector{terms: terms, norm: math.Sqrt(norm)}
}

// Tokenize splits text into lowercase terms, dropping short ones.
func Tokenize(text string) []string {
	raw := tokenPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Cosine reports the cosine similarity between two vectors. A nil or empty
// vector compares as zero.
func Cosine(a, b *Vector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for term, count := range a.terms {
		if other, ok := b.terms[term]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
