package driven

// Lemmatizer turns text into the ordered lemma sequence used for training
// and querying. It case-folds, strips markup and non-word characters and
// removes stopwords.
type Lemmatizer interface {
	Normalize(text string) []string
}
