package domain

// DuplicateCluster is a set of record ids that are each within the similarity
// threshold of at least one other member. IDs are sorted ascending.
type DuplicateCluster struct {
	IDs []int64 `json:"ids"`
}

// DuplicateOptions configures a duplicate scan.
type DuplicateOptions struct {
	// Threshold is the inclusive similarity floor for two vectors to count as
	// duplicates. WithDefaults replaces 0 or less with DefaultSimilarityThreshold.
	Threshold float64

	// Neighbours is how many nearest neighbours are inspected per vector.
	Neighbours int

	// PageSize is the scroll page size used to read the collection.
	PageSize int

	// Connected merges clusters that share a member into one cluster.
	// When false, only clusters with identical membership are collapsed.
	Connected bool
}

// WithDefaults fills zero fields with the package defaults.
func (o DuplicateOptions) WithDefaults() DuplicateOptions {
	if o.Threshold <= 0 {
		o.Threshold = DefaultSimilarityThreshold
	}
	if o.Neighbours <= 0 {
		o.Neighbours = DefaultDuplicateNeighbours
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultScrollPageSize
	}
	return o
}
