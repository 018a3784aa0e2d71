package service

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/dishcraft/backend/internal/model"
)

// Embedder turns text into a search vector
type Embedder interface {
	Embed(text string) pgvector.Vector
}

// HashEmbedder is a deterministic bag-of-words embedding: each lowercase word
// is hashed into one of the model.EmbeddingDimensions buckets and the result
// is scaled to unit length.
type HashEmbedder struct{}

// Embed returns the embedding of text
func (HashEmbedder) Embed(text string) pgvector.Vector {
	vec := make([]float32, model.EmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(len(vec))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return pgvector.NewVector(vec)
}
