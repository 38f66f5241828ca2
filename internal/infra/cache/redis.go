package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// TreatmentSource is a read-through cache in front of the knowledge base.
// Every cache failure falls through to the underlying source; the cache can
// never make a lookup worse than no cache.
type TreatmentSource struct {
	next   domain.Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTreatmentSource(next domain.Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *TreatmentSource {
	return &TreatmentSource{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func (c *TreatmentSource) ChemicalProducts(ctx context.Context, disease, plant string) ([]string, error) {
	key := fmt.Sprintf("treat:chemical:%s:%s", disease, plant)
	return c.lookup(ctx, key, func() ([]string, error) {
		return c.next.ChemicalProducts(ctx, disease, plant)
	})
}

func (c *TreatmentSource) BiologicalMethods(ctx context.Context, disease string) ([]string, error) {
	key := "treat:biological:" + disease
	return c.lookup(ctx, key, func() ([]string, error) {
		return c.next.BiologicalMethods(ctx, disease)
	})
}

func (c *TreatmentSource) CulturalPractices(ctx context.Context, plant string) ([]string, error) {
	key := "treat:cultural:" + plant
	return c.lookup(ctx, key, func() ([]string, error) {
		return c.next.CulturalPractices(ctx, plant)
	})
}

func (c *TreatmentSource) lookup(ctx context.Context, key string, fetch func() ([]string, error)) ([]string, error) {
	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var items []string
		if json.Unmarshal([]byte(cached), &items) == nil {
			return items, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("treatment cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}

	if payload, merr := json.Marshal(items); merr == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("treatment cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
