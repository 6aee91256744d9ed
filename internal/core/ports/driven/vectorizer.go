package driven

// Vectorizer is a trainable text-to-vector model.
//
// Fit may be called once per instance; a retrain constructs a new instance
// through VectorizerFactory so vectors of one generation share one
// coordinate space.
type Vectorizer interface {
	// Kind names the model type, e.g. "tfidf".
	Kind() string

	// Fit trains the model on a corpus of lemma sequences.
	Fit(corpus [][]string) error

	// Transform maps lemmas to a vector of length EmbeddingSize.
	Transform(lemmas []string) ([]float32, error)

	// EmbeddingSize returns the vector dimension, 0 before Fit or Load.
	EmbeddingSize() int

	// Save writes the model state into dir.
	Save(dir string) error

	// Load restores the model state from dir.
	Load(dir string) error
}

// VectorizerFactory creates untrained vectorizers.
type VectorizerFactory interface {
	// Create returns a fresh vectorizer of the given kind.
	// Returns domain.ErrUnsupportedType for an unknown kind.
	Create(kind string) (Vectorizer, error)

	// SupportedKinds lists the kinds Create accepts.
	SupportedKinds() []string
}
