package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Cache stores embedding vectors in Redis keyed by a hash of the model and
// text. Persona contexts repeat across runs against the same audience, so
// a warm cache removes most embedding calls. All operations are
// best-effort: a broken Redis only costs cache hits, never a score.
type Cache struct {
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

// NewCache creates an embedding cache. A zero ttl defaults to 24h.
func NewCache(rdb *redis.Client, model string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{rdb: rdb, model: model, ttl: ttl}
}

// Get returns the cached vector for text, if present.
func (c *Cache) Get(ctx context.Context, text string) ([]float64, bool) {
	raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("embedding cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		logger.Debug("embedding cache entry corrupt", "error", err)
		return nil, false
	}
	return vec, true
}

// Put stores the vector for text.
func (c *Cache) Put(ctx context.Context, text string, vec []float64) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(text), raw, c.ttl).Err(); err != nil {
		logger.Debug("embedding cache write failed", "error", err)
	}
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "inboxsim:emb:" + hex.EncodeToString(sum[:16])
}
