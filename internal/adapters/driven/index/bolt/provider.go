// Package bolt provides a bbolt-backed index provider. Each scope's index
// lives in its own bucket; Build replaces the bucket in a single
// transaction, so readers see either the old index or the new one, never a
// mix. Search is brute-force cosine similarity, which is adequate at
// per-scope document counts.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.IndexProvider = (*Provider)(nil)

// embedBatchSize is how many chunks are embedded per upstream request.
const embedBatchSize = 64

// storedEntry is the serialised form of one indexed chunk.
type storedEntry struct {
	Source  string    `json:"s"`
	Page    int       `json:"p,omitempty"`
	Content string    `json:"c"`
	Vector  []float32 `json:"v"`
}

// Provider persists per-scope similarity indexes in a bbolt database.
type Provider struct {
	db       *bbolt.DB
	embedder driven.EmbeddingService
}

// Open opens (or creates) the index database at path.
func Open(path string, embedder driven.EmbeddingService) (*Provider, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	return &Provider{db: db, embedder: embedder}, nil
}

// NewWithDB wraps an already opened database. The caller keeps ownership
// of the handle; Close is a no-op path for it.
func NewWithDB(db *bbolt.DB, embedder driven.EmbeddingService) *Provider {
	return &Provider{db: db, embedder: embedder}
}

// Build embeds the entries and replaces the scope's bucket with them in one
// transaction.
func (p *Provider) Build(ctx context.Context, scope domain.Scope, entries []driven.IndexEntry) error {
	if p.embedder == nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, domain.ErrEmbeddingUnavailable)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries for scope %q: %w", scope, domain.ErrIndexBuild)
	}

	logger.Debug("Embedding %d entries for scope %q (model %s)", len(entries), scope, p.embedder.ModelName())

	vectors, err := p.embedAll(ctx, entries)
	if err != nil {
		return fmt.Errorf("%w: embed scope %q: %w", domain.ErrIndexBuild, scope, err)
	}

	name := bucketName(scope)
	return p.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("replace bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		for i, entry := range entries {
			data, err := json.Marshal(storedEntry{
				Source:  entry.Source,
				Page:    entry.Page,
				Content: entry.Content,
				Vector:  vectors[i],
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(entry.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Query embeds the text and returns the k nearest entries by cosine
// similarity, most similar first.
func (p *Provider) Query(ctx context.Context, scope domain.Scope, text string, k int) ([]driven.IndexHit, error) {
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if k <= 0 {
		return nil, nil
	}

	query, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []driven.IndexHit
	err = p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(scope))
		if b == nil {
			return domain.ErrNotFound
		}
		return b.ForEach(func(key, value []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(value, &stored); err != nil {
				// Skip corrupted entries
				return nil
			}
			hits = append(hits, driven.IndexHit{
				ChunkID:    string(key),
				Source:     stored.Source,
				Page:       stored.Page,
				Content:    stored.Content,
				Similarity: cosineSimilarity(query, stored.Vector),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Exists reports whether a persisted index exists for the scope.
func (p *Provider) Exists(_ context.Context, scope domain.Scope) (bool, error) {
	var exists bool
	err := p.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketName(scope)) != nil
		return nil
	})
	return exists, err
}

// Delete removes the scope's index, if any.
func (p *Provider) Delete(_ context.Context, scope domain.Scope) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketName(scope)) == nil {
			return nil
		}
		return tx.DeleteBucket(bucketName(scope))
	})
}

// Close closes the underlying database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// embedAll embeds entry contents in batches.
func (p *Provider) embedAll(ctx context.Context, entries []driven.IndexEntry) ([][]float32, error) {
	vectors := make([][]float32, 0, len(entries))
	for start := 0; start < len(entries); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		texts := make([]string, 0, end-start)
		for _, entry := range entries[start:end] {
			texts = append(texts, entry.Content)
		}
		batch, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func bucketName(scope domain.Scope) []byte {
	return []byte("index:" + scope.String())
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
