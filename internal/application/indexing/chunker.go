package indexing

// Piece is one pre-embedding slice of a file.
type Piece struct {
	Ordinal int
	Text    string
}

// Split cuts text into chunks of at most size runes, each overlapping the
// previous one by overlap runes so context crossing a boundary survives.
func Split(text string, size, overlap int) []Piece {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []Piece{{Ordinal: 0, Text: string(runes)}}
	}

	step := size - overlap
	var pieces []Piece
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, Piece{Ordinal: len(pieces), Text: string(runes[start:end])})
		if end == len(runes) {
			break
		}
	}
	return pieces
}
