package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ironready/coach-api/internal/domain"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = "1"

// ErrIndexUnavailable means no usable index is loaded.
var ErrIndexUnavailable = errors.New("exercise index unavailable")

// Entry is one corpus document and its embedding. Entries keep corpus order.
type Entry struct {
	Document  domain.ExerciseDocument `json:"document"`
	Embedding []float64               `json:"embedding"`
}

// Snapshot is the serialized index produced offline by the indexer.
type Snapshot struct {
	Version    string    `json:"version"`
	Embedder   string    `json:"embedder"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
	Entries    []Entry   `json:"entries"`
}

// BuildSnapshot embeds docs in batches of batchSize, preserving order.
func BuildSnapshot(ctx context.Context, docs []domain.ExerciseDocument, embedder Embedder, batchSize int) (*Snapshot, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	snap := &Snapshot{
		Version:   SnapshotVersion,
		Embedder:  embedder.Name(),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]Entry, 0, len(docs)),
	}
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text())
		}
		vecs, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed documents %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed documents %d-%d: embedder returned %d vectors, want %d", start, end-1, len(vecs), end-start)
		}
		for i, v := range vecs {
			snap.Entries = append(snap.Entries, Entry{Document: docs[start+i], Embedding: v})
		}
	}
	snap.Dimensions = len(snap.Entries[0].Embedding)
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Validate checks that the snapshot is usable for search.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", s.Version)
	}
	if len(s.Entries) == 0 {
		return ErrEmptyCorpus
	}
	for i, e := range s.Entries {
		if len(e.Embedding) != s.Dimensions || s.Dimensions == 0 {
			return fmt.Errorf("entry %d (%s) has %d dimensions, want %d", i, e.Document.Name, len(e.Embedding), s.Dimensions)
		}
	}
	return nil
}

// Marshal encodes the snapshot as JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes and validates a snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode index snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Scored is a search hit.
type Scored struct {
	Document domain.ExerciseDocument
	Score    float64
	Position int // position in the corpus
}

// Index holds the active snapshot. Reloads swap it whole.
type Index struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewIndex() *Index {
	return &Index{}
}

// Swap installs snap as the active snapshot.
func (ix *Index) Swap(snap *Snapshot) {
	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()
}

// Loaded reports whether a snapshot is active.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap != nil
}

// Info returns the embedder name and size of the active snapshot.
func (ix *Index) Info() (embedder string, count int, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return "", 0, false
	}
	return ix.snap.Embedder, len(ix.snap.Entries), true
}

// Documents returns the corpus in insertion order.
func (ix *Index) Documents() ([]domain.ExerciseDocument, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return nil, ErrIndexUnavailable
	}
	docs := make([]domain.ExerciseDocument, len(ix.snap.Entries))
	for i, e := range ix.snap.Entries {
		docs[i] = e.Document
	}
	return docs, nil
}

// Search ranks entries by cosine similarity to query, highest first. Equal
// scores keep corpus order. At most k hits are returned.
func (ix *Index) Search(embedder string, query []float64, k int) ([]Scored, error) {
	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()

	if snap == nil {
		return nil, ErrIndexUnavailable
	}
	if snap.Embedder != embedder {
		return nil, fmt.Errorf("%w: index built with %s, query embedded with %s", ErrIndexUnavailable, snap.Embedder, embedder)
	}
	if len(query) != snap.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrIndexUnavailable, len(query), snap.Dimensions)
	}
	if k <= 0 {
		return []Scored{}, nil
	}

	hits := make([]Scored, len(snap.Entries))
	for i, e := range snap.Entries {
		hits[i] = Scored{Document: e.Document, Score: cosineSimilarity(query, e.Embedding), Position: i}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
