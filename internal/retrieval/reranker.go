package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Reranker scores (query, text) pairs for relevance. Every candidate text
// is scored; there is no approximate shortcut.
type Reranker interface {
	Scores(ctx context.Context, query string, texts []string) ([]float64, error)
}

// LexicalReranker is a local, deterministic reranker that scores chunks
// by TF-IDF cosine similarity to the query. The vocabulary and IDF values
// are rebuilt per call from the candidate texts themselves, so scores are
// comparable only within one call.
type LexicalReranker struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewLexicalReranker creates a LexicalReranker with English stopwords.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (r *LexicalReranker) Scores(_ context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vocabulary, idf := r.prepare(texts)
	queryVec := r.embed(query, vocabulary, idf)

	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = dot(queryVec, r.embed(text, vocabulary, idf))
	}
	return scores, nil
}

// prepare builds the vocabulary and smoothed IDF values from the corpus.
func (r *LexicalReranker) prepare(corpus []string) (map[string]int, []float64) {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range r.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return vocabulary, idf
}

// embed computes the L2-normalized TF-IDF vector of text.
func (r *LexicalReranker) embed(text string, vocabulary map[string]int, idf []float64) []float64 {
	vec := make([]float64, len(idf))

	tf := make(map[int]int)
	total := 0
	for _, tok := range r.tokenize(text) {
		if idx, ok := vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}

	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * idf[idx]
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (r *LexicalReranker) tokenize(text string) []string {
	raw := r.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := r.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of",
		"in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been",
		"being", "it", "this", "that", "these", "those", "from", "up", "down", "over",
		"under", "again", "further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
