// Package similarity scores how relevant one text snippet is to another,
// on a 0..1 scale. The preferred path embeds both texts through a semantic
// embedding model and compares them by cosine similarity; when the
// embedding backend is missing or misbehaving it degrades silently to
// lexical word-set overlap. Scoring never fails.
package similarity

import (
	"context"
	"math"
	"strings"

	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Scorer computes a relevance score in [0,1] between two texts.
type Scorer interface {
	Score(ctx context.Context, a, b string) float64
}

// Embedder turns texts into numeric vectors. Implemented by the HTTP
// embeddings client; nil-able so the scorer can run embedding-free.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbeddingScorer is the production scorer: semantic embeddings with a
// lexical fallback. An optional cache avoids re-embedding the same persona
// context for every draft.
type EmbeddingScorer struct {
	embedder Embedder
	cache    *Cache
}

// New creates a scorer. Both embedder and cache may be nil; a nil embedder
// means every score takes the lexical path.
func New(embedder Embedder, cache *Cache) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: embedder, cache: cache}
}

// Score implements Scorer. All failures degrade to the lexical path with a
// diagnostic log; the result is always in [0,1].
func (s *EmbeddingScorer) Score(ctx context.Context, a, b string) float64 {
	if s.embedder == nil {
		return Lexical(a, b)
	}

	vecs, err := s.embed(ctx, a, b)
	if err != nil {
		logger.Warn("embedding failed, using lexical similarity", "error", err)
		return Lexical(a, b)
	}

	cos, ok := cosine(vecs[0], vecs[1])
	if !ok {
		logger.Debug("zero-magnitude embedding, using lexical similarity")
		return Lexical(a, b)
	}
	return clamp01(cos)
}

func (s *EmbeddingScorer) embed(ctx context.Context, a, b string) ([][]float64, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, []string{a, b})
	}

	out := make([][]float64, 2)
	var missing []string
	var missingIdx []int
	for i, text := range []string{a, b} {
		if vec, ok := s.cache.Get(ctx, text); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		s.cache.Put(ctx, missing[j], vec)
	}
	return out, nil
}

// cosine returns the cosine similarity of two vectors. ok is false when
// either vector has zero magnitude or the lengths differ.
func cosine(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), true
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
}

// Lexical is the fallback path: Jaccard index over lowercase whitespace
// tokens with stop words removed. 0.0 when either cleaned set is empty.
func Lexical(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	inter := 0
	union := len(setB)
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, stop := stopWords[w]; !stop {
			set[w] = struct{}{}
		}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
