package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension is the vector size used by HashEmbedder when none is given.
const DefaultHashDimension = 256

// HashEmbedder is a deterministic, offline bag-of-words embedder. Each lowercased
// token is hashed into a bucket and the resulting vector is L2-normalized, so
// texts sharing words score higher under cosine similarity.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a HashEmbedder. If dimension is 0, DefaultHashDimension is used.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

func (h *HashEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, token := range tokens {
		f := fnv.New32a()
		f.Write([]byte(token))
		vec[f.Sum32()%uint32(h.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
