// Package hashembed provides a local, deterministic text embedder based on
// feature hashing of word tokens. It needs no external service and always
// produces the same vector for the same text, which makes index builds and
// nearest-neighbor results reproducible.
package hashembed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Dimension is the fixed embedding dimension.
const Dimension = 384

// Embedder implements llm.Embedder locally. The model argument is ignored.
type Embedder struct{}

func New() *Embedder { return &Embedder{} }

func (e *Embedder) Embeddings(_ context.Context, _ string, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		out[i] = embed(text)
	}
	return out, nil
}

func embed(text string) []float32 {
	vec := make([]float32, Dimension)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}
	for i, tok := range tokens {
		addFeature(vec, tok)
		// word bigrams capture a little ordering
		if i+1 < len(tokens) {
			addFeature(vec, tok+" "+tokens[i+1])
		}
	}
	// L2-normalize so distances are scale-independent
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := sum % Dimension
	// second hash bit decides sign to keep the expected sum near zero
	if (sum>>63)&1 == 1 {
		vec[idx] -= 1
	} else {
		vec[idx] += 1
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
