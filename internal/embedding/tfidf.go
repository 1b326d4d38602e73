package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

const tfidfModelFile = "tfidf.json"

// TFIDF is a local, deterministic TF-IDF vectorizer. It builds a
// vocabulary from the corpus during Prepare and can persist that model
// alongside the index so a fresh process embeds queries against the same
// vocabulary. Its Model() is a content hash of the vocabulary, so an
// index built against a different vocabulary is detected as a different
// embedding model.
type TFIDF struct {
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	modelID      string
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewTFIDF creates an unprepared TF-IDF embedder.
func NewTFIDF() *TFIDF {
	return &TFIDF{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *TFIDF) Name() string { return "tfidf" }

// Model identifies the prepared vocabulary; empty until Prepare or Restore.
func (e *TFIDF) Model() string { return e.modelID }

func (e *TFIDF) Dimension() int { return e.dimension }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *TFIDF) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("%w: empty corpus for tf-idf prepare", domain.ErrEmbeddingUnavailable)
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
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
	if len(terms) == 0 {
		return fmt.Errorf("%w: no tokens found in corpus", domain.ErrEmbeddingUnavailable)
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.modelID = hashModel(terms, e.idf)
	e.prepared = true
	return nil
}

// Embed computes the L2-normalized TF-IDF vector for the given text.
func (e *TFIDF) Embed(_ context.Context, text string) ([]float32, error) {
	if !e.prepared {
		return nil, fmt.Errorf("%w: tf-idf embedder not prepared", domain.ErrEmbeddingUnavailable)
	}
	acc := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	vec := make([]float32, e.dimension)
	if total == 0 {
		return vec, nil
	}
	norm := 0.0
	for idx, count := range tf {
		acc[idx] = float64(count) / float64(total) * e.idf[idx]
		norm += acc[idx] * acc[idx]
	}
	norm = math.Sqrt(norm)
	for idx := range tf {
		vec[idx] = float32(acc[idx] / norm)
	}
	return vec, nil
}

// EmbedBatch embeds every text in input order.
func (e *TFIDF) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type tfidfModel struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
}

// Save writes the prepared vocabulary into dir.
func (e *TFIDF) Save(dir string) error {
	if !e.prepared {
		return fmt.Errorf("%w: nothing to save", domain.ErrEmbeddingUnavailable)
	}
	terms := make([]string, e.dimension)
	for term, idx := range e.vocabulary {
		terms[idx] = term
	}
	data, err := json.Marshal(tfidfModel{Terms: terms, IDF: e.idf})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, tfidfModelFile), data, 0o644)
}

// Restore loads a vocabulary previously written by Save.
func (e *TFIDF) Restore(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, tfidfModelFile))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	var m tfidfModel
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(m.Terms) == 0 || len(m.Terms) != len(m.IDF) {
		return fmt.Errorf("%w: malformed tf-idf model", domain.ErrEmbeddingUnavailable)
	}
	e.vocabulary = make(map[string]int, len(m.Terms))
	for i, term := range m.Terms {
		e.vocabulary[term] = i
	}
	e.idf = m.IDF
	e.dimension = len(m.Terms)
	e.modelID = hashModel(m.Terms, m.IDF)
	e.prepared = true
	return nil
}

func (e *TFIDF) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hashModel(terms []string, idf []float64) string {
	h := sha1.New()
	for i, t := range terms {
		fmt.Fprintf(h, "%s:%.9f;", t, idf[i])
	}
	return "tfidf-" + hex.EncodeToString(h.Sum(nil))[:12]
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
