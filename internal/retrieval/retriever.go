package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ironready/coach-api/internal/domain"
)

// Retriever answers free-text queries against the active index.
type Retriever struct {
	index    *Index
	embedder Embedder
	timeout  time.Duration
}

func NewRetriever(index *Index, embedder Embedder, timeout time.Duration) *Retriever {
	return &Retriever{index: index, embedder: embedder, timeout: timeout}
}

// Retrieve returns up to k documents ranked by similarity to query, ties
// in corpus order. Any failure wraps ErrIndexUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ExerciseDocument, error) {
	if !r.index.Loaded() {
		return nil, ErrIndexUnavailable
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrIndexUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors", ErrIndexUnavailable, len(vecs))
	}

	hits, err := r.index.Search(r.embedder.Name(), vecs[0], k)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.ExerciseDocument, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs, nil
}

// Documents lists the whole corpus.
func (r *Retriever) Documents() ([]domain.ExerciseDocument, error) {
	return r.index.Documents()
}

// RenderContext joins documents into the block handed to the model.
func RenderContext(docs []domain.ExerciseDocument) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Text()
	}
	return strings.Join(parts, "\n\n")
}
