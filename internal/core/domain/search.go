package domain

// Distance is the similarity metric of a collection.
type Distance string

// DistanceCosine is the only metric the index layer creates collections with.
const DistanceCosine Distance = "Cosine"

// CollectionInfo describes a collection in the vector store.
type CollectionInfo struct {
	Name      string
	Dimension int
	Distance  Distance
	Count     int
}

// Point is a stored row of a collection: an id, its vector and its payload text.
type Point struct {
	ID      int64
	Vector  []float32
	Content string
}

// ScoredPoint is a nearest-neighbour search hit.
type ScoredPoint struct {
	ID      int64
	Score   float64
	Content string
}

// ScrollRequest asks for one page of a collection scan.
// An empty Cursor starts the scan.
type ScrollRequest struct {
	Cursor      string
	Limit       int
	WithPayload bool
	WithVectors bool
}

// ScrollPage is one page of a collection scan.
// An empty Next signals the scan is complete.
type ScrollPage struct {
	Points []Point
	Next   string
}

// SearchHit is a result returned by an index query.
type SearchHit struct {
	// ID is the record id.
	ID int64 `json:"id"`

	// Score is the cosine similarity of the best matching vector.
	Score float64 `json:"score"`

	// Content is the payload returned for the hit. In FAQ mode it is the answer.
	Content string `json:"content"`

	// Collection is the collection whose vector produced Score. In FAQ mode
	// it names the questions collection when a question matched, while
	// Content still holds the answer.
	Collection string `json:"collection"`
}
