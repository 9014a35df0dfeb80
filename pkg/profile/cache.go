package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookwormlabs/jarvisbot/pkg/logger"
	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

// VectorCache persists each user's derived interest vector so it does not
// have to be recomputed from scratch on every similarity query. It never
// saves implicitly; persisting after a model update is the caller's job,
// which keeps the cache from silently going stale relative to the model.
type VectorCache struct {
	store store.Store
	root  string
}

func NewVectorCache(s store.Store, rootKey string) *VectorCache {
	return &VectorCache{store: s, root: rootKey}
}

func (c *VectorCache) key(userID string) string {
	return fmt.Sprintf("%s:%s:interests_vector", c.root, userID)
}

// Save overwrites the stored vector for userID.
func (c *VectorCache) Save(ctx context.Context, userID string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal interest vector: %w", err)
	}
	return c.store.Set(ctx, c.key(userID), string(data))
}

// Load returns the stored vector, or nil when absent. A stored value that
// fails to decode is logged and treated as absent.
func (c *VectorCache) Load(ctx context.Context, userID string) ([]float32, error) {
	raw, found, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		logger.WarnCF("profile", "Discarding malformed interest vector", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, nil
	}
	if len(vec) == 0 {
		return nil, nil
	}
	return vec, nil
}

// LoadOrCompute returns the cached vector when present, otherwise the
// model's current vector (which may be nil). The computed vector is not
// persisted here.
func (c *VectorCache) LoadOrCompute(ctx context.Context, userID string, model *InterestModel) ([]float32, error) {
	vec, err := c.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if vec != nil {
		return vec, nil
	}
	if model == nil {
		return nil, nil
	}
	return model.Vector(), nil
}
