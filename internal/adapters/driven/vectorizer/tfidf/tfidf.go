// Package tfidf provides a TF-IDF vectorizer over lemma sequences.
package tfidf

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Kind is the model kind stored in index manifests.
const Kind = "tfidf"

// ModelFile is the file written by Save inside the model directory.
const ModelFile = "model.json"

// Ensure Vectorizer implements the interface.
var _ driven.Vectorizer = (*Vectorizer)(nil)

// Vectorizer builds a sorted vocabulary and smoothed IDF weights from a
// lemma corpus. A fitted Vectorizer is immutable.
type Vectorizer struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	terms      []string
	idf        []float64
	documents  int
	fitted     bool
}

// state is the on-disk form of a fitted model.
type state struct {
	Kind      string    `json:"kind"`
	Documents int       `json:"documents"`
	Terms     []string  `json:"terms"`
	IDF       []float64 `json:"idf"`
}

// New creates an unfitted vectorizer.
func New() *Vectorizer {
	return &Vectorizer{}
}

// Kind returns "tfidf".
func (v *Vectorizer) Kind() string { return Kind }

// Fit builds the vocabulary and IDF values from corpus.
func (v *Vectorizer) Fit(corpus [][]string) error {
	if len(corpus) == 0 {
		return domain.ErrEmptyCorpus
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fitted {
		return errors.New("tfidf: model already fitted")
	}

	df := make(map[string]int)
	for _, lemmas := range corpus {
		seen := make(map[string]struct{}, len(lemmas))
		for _, lemma := range lemmas {
			if _, ok := seen[lemma]; ok {
				continue
			}
			seen[lemma] = struct{}{}
			df[lemma]++
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("tfidf: %w: corpus has no terms", domain.ErrEmptyCorpus)
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	v.install(terms, idf, len(corpus))
	return nil
}

// install sets the model state (caller must hold lock).
func (v *Vectorizer) install(terms []string, idf []float64, documents int) {
	v.terms = terms
	v.idf = idf
	v.documents = documents
	v.vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
	}
	v.fitted = true
}

// Transform returns the L2-normalised TF-IDF vector of lemmas.
// Lemmas outside the vocabulary are ignored; a text with no known lemma
// yields the zero vector.
func (v *Vectorizer) Transform(lemmas []string) ([]float32, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.fitted {
		return nil, domain.ErrModelNotFitted
	}

	vec := make([]float32, len(v.terms))
	if len(lemmas) == 0 {
		return vec, nil
	}

	counts := make(map[int]int)
	for _, lemma := range lemmas {
		if idx, ok := v.vocabulary[lemma]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return vec, nil
	}

	// Term frequency is relative to every token of the text, known or not.
	total := float64(len(lemmas))
	weights := make(map[int]float64, len(counts))
	norm := 0.0
	for idx, count := range counts {
		w := float64(count) / total * v.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec, nil
}

// EmbeddingSize returns the vocabulary size, 0 before Fit or Load.
func (v *Vectorizer) EmbeddingSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms)
}

// Save writes model.json into dir, creating dir if needed.
func (v *Vectorizer) Save(dir string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.fitted {
		return domain.ErrModelNotFitted
	}

	data, err := json.Marshal(state{
		Kind:      Kind,
		Documents: v.documents,
		Terms:     v.terms,
		IDF:       v.idf,
	})
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp := filepath.Join(dir, ModelFile+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, ModelFile)); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load restores a model written by Save.
func (v *Vectorizer) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, ModelFile))
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	if st.Kind != Kind {
		return fmt.Errorf("decode model: %w: kind %q", domain.ErrUnsupportedType, st.Kind)
	}
	if len(st.Terms) == 0 || len(st.Terms) != len(st.IDF) {
		return fmt.Errorf("decode model: %w: %d terms, %d weights",
			domain.ErrInvalidInput, len(st.Terms), len(st.IDF))
	}
	if !sort.StringsAreSorted(st.Terms) {
		return fmt.Errorf("decode model: %w: vocabulary not sorted", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.install(st.Terms, st.IDF, st.Documents)
	return nil
}
