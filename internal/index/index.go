package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Embedder turns text into vectors. Documents and queries may be embedded differently.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is a flat in-memory vector index ranked by cosine similarity.
type Index struct {
	mu      sync.RWMutex
	dim     int
	docs    []Document
	vectors [][]float32
}

// Hit is a search result.
type Hit struct {
	Document Document
	Score    float64
}

func New() *Index {
	return &Index{}
}

// Build embeds docs in one batch and returns an index holding them.
func Build(ctx context.Context, embedder Embedder, docs []Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, ErrMissingInput
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("failed to create embeddings: got %d vectors for %d documents", len(vectors), len(docs))
	}

	idx := New()
	for i := range docs {
		if err := idx.Add(docs[i], vectors[i]); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add stores a document. The first vector fixes the index dimension.
func (x *Index) Add(doc Document, vector []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %q", ErrDimensionMismatch, doc.ID)
	}
	if x.dim == 0 {
		x.dim = len(vector)
	}
	if len(vector) != x.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), x.dim)
	}
	x.docs = append(x.docs, doc)
	x.vectors = append(x.vectors, vector)
	return nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

func (x *Index) Documents() []Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]Document(nil), x.docs...)
}

// Search returns up to k documents closest to vector, best first. Equal scores keep
// insertion order.
func (x *Index) Search(vector []float32, k int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.docs) == 0 {
		return nil, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), x.dim)
	}

	hits := make([]Hit, len(x.docs))
	for i, v := range x.vectors {
		hits[i] = Hit{Document: x.docs[i], Score: cosine(vector, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type snapshot struct {
	Dimension int         `json:"dimension"`
	Documents []Document  `json:"documents"`
	Vectors   [][]float32 `json:"vectors"`
}

// Save writes the index as JSON.
func (x *Index) Save(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return json.NewEncoder(w).Encode(snapshot{
		Dimension: x.dim,
		Documents: x.docs,
		Vectors:   x.vectors,
	})
}

// Load reads an index written by Save.
func Load(r io.Reader) (*Index, error) {
	var s snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	if len(s.Documents) != len(s.Vectors) {
		return nil, fmt.Errorf("corrupt index: %d documents, %d vectors", len(s.Documents), len(s.Vectors))
	}
	idx := New()
	for i := range s.Documents {
		if err := idx.Add(s.Documents[i], s.Vectors[i]); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// SaveFile writes the index under dir/name.json, creating dir if needed.
func (x *Index) SaveFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create index dir: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()
	if err := x.Save(f); err != nil {
		return "", err
	}
	return path, nil
}

func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
