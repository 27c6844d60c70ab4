package index

// Chunk is a bounded slice of one source file plus its embedding vector.
// Created once during index building; immutable afterwards.
type Chunk struct {
	ID       string    `json:"id"`
	FilePath string    `json:"file_path"`
	Ordinal  int       `json:"ordinal"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"-"`
}

// Match is one retrieval hit, smaller distance is closer.
type Match struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}
