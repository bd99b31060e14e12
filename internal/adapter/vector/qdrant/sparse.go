package qdrant

import (
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// SparseVector is a bag-of-tokens vector: FNV-1a hashes of the tokens as
// indices, term frequencies as values. Qdrant's IDF modifier weighs the
// terms at query time, so the client never needs corpus statistics.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// Sparsify tokenizes text and builds its sparse vector. Tokenization is
// deliberately crude: lowercase, split on anything that is not a letter
// or digit, drop single-rune tokens. It behaves the same for Russian and
// Latin text, which is all the corpora contain.
func Sparsify(text string) SparseVector {
	counts := make(map[uint32]float32)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		counts[h.Sum32()]++
	}
	if len(counts) == 0 {
		return SparseVector{}
	}
	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return SparseVector{Indices: indices, Values: values}
}

func tokenize(text string) []string {
	var tokens []string
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
