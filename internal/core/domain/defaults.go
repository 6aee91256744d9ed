package domain

// Defaults shared by services and adapters.
const (
	// DefaultScrollPageSize is the number of points fetched per scroll call.
	DefaultScrollPageSize = 100

	// DefaultSimilarityThreshold is the score floor for similar search and duplicates.
	DefaultSimilarityThreshold = 0.95

	// DefaultDuplicateNeighbours is the number of neighbours inspected per vector.
	DefaultDuplicateNeighbours = 5

	// DefaultSearchLimit is the number of hits returned when no limit is given.
	DefaultSearchLimit = 5

	// DefaultModelKind names the vectorizer used when an index spec omits one.
	DefaultModelKind = "tfidf"
)
