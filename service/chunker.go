package service

import "strings"

// SplitIntoChunks splits text into ordered pieces for per-chunk
// extraction. Words accumulate until adding the next word would push the
// piece past chunkSize characters, so each piece is a maximal run of
// whole words under the bound. A single word longer than the bound is
// still emitted as its own piece. Rejoining the pieces with single
// spaces reconstructs the original word sequence exactly; interior
// whitespace runs are not preserved.
func SplitIntoChunks(text string, chunkSize int) []string {
	words := strings.Fields(text)

	var chunks []string
	var current []string
	currentSize := 0

	for _, word := range words {
		if currentSize+len(word)+1 > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			currentSize = len(word)
		} else {
			current = append(current, word)
			currentSize += len(word) + 1
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
