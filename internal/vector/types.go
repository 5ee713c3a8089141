package vector

// ChunkRecord is what the indexer hands to the vector store: one embedded
// chunk plus the metadata bag used for post-filtering at query time.
type ChunkRecord struct {
	DocID      int64
	ChunkIndex int
	Text       string
	Vector     []float32
	Language   string
	Intent     string
	Category   string
	Path       string
}

// Hit is a nearest-neighbor result. Similarity is 1 - cosine distance,
// already converted at the store boundary.
type Hit struct {
	DocID      int64
	ChunkIndex int
	Text       string
	Similarity float64
}

// Filter restricts a vector query to chunks matching the given metadata.
// Zero values mean "no restriction".
type Filter struct {
	Language string
	Category string
}
