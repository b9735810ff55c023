// Package vectorindex implements an exact, in-memory nearest-neighbor index
// over document embeddings, with file-pair persistence.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cyberguard/internal/llm"
	"cyberguard/internal/models"
)

var (
	// ErrNotBuilt is returned by Search before a successful Build or Load.
	ErrNotBuilt = errors.New("vector index not built")
	// ErrEmptyCorpus is returned by Build for an empty document sequence.
	ErrEmptyCorpus = errors.New("empty corpus")
)

// Index is a flat (exact) nearest-neighbor structure over squared Euclidean
// distance, holding the document sequence index-aligned with its vectors.
// Build/Load must not run concurrently with Search; Search is safe for
// concurrent readers.
type Index struct {
	emb   llm.Embedder
	model string

	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	docs    []models.Document
}

// New returns an index that embeds with emb. model selects the embedding
// model for providers that need one; the local embedder ignores it.
func New(emb llm.Embedder, model string) *Index {
	return &Index{emb: emb, model: model}
}

// Build embeds every document's content and replaces the index state. The
// vectors and documents stay index-aligned; after a successful Build,
// Size() == len(docs).
func (ix *Index) Build(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return ErrEmptyCorpus
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	vecs, err := ix.emb.Embeddings(ctx, ix.model, contents)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("inconsistent embedding dimension at document %d: %d != %d", i, len(v), dim)
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = dim
	ix.vectors = vecs
	ix.docs = append([]models.Document(nil), docs...)
	return nil
}

// Size reports the number of indexed documents.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search embeds the query and returns up to k documents ordered by ascending
// squared Euclidean distance. Fewer than k results are returned when the
// corpus is smaller than k.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	ix.mu.RLock()
	built := ix.vectors != nil
	ix.mu.RUnlock()
	if !built {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		return nil, nil
	}
	vecs, err := ix.emb.Embeddings(ctx, ix.model, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	q := vecs[0]

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(q) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(q), ix.dim)
	}
	type scored struct {
		idx  int
		dist float64
	}
	all := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		all[i] = scored{idx: i, dist: sqDist(q, v)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })
	if k > len(all) {
		k = len(all)
	}
	out := make([]models.RetrievalResult, 0, k)
	for _, s := range all[:k] {
		out = append(out, models.RetrievalResult{Document: ix.docs[s.idx], Distance: s.dist})
	}
	return out, nil
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
