package ml

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Provider hands out a single Predictor for the lifetime of the process. The
// loader runs on the first call only; its result, error included, is kept.
type Provider struct {
	get func() (Predictor, error)
}

// NewProvider calls load at most once, on the first Predictor call.
func NewProvider(load func() (Predictor, error)) *Provider {
	return &Provider{get: sync.OnceValues(load)}
}

// StaticProvider wraps an already built predictor.
func StaticProvider(p Predictor) *Provider {
	return NewProvider(func() (Predictor, error) { return p, nil })
}

// Predictor returns the loaded predictor, or the error load returned.
func (p *Provider) Predictor() (Predictor, error) {
	return p.get()
}

// CachedPredictor memoises predictions per encoded row. A row has at most
// 2^NumFeatures distinct values, so the cache settles quickly.
type CachedPredictor struct {
	model Predictor
	cache *lru.Cache[uint16, int]
}

// NewCachedPredictor memoises up to size row predictions of model.
func NewCachedPredictor(model Predictor, size int) (*CachedPredictor, error) {
	cache, err := lru.New[uint16, int](size)
	if err != nil {
		return nil, fmt.Errorf("prediction cache: %w", err)
	}
	return &CachedPredictor{model: model, cache: cache}, nil
}

// Predict answers cached rows directly and sends the rest to the model.
func (c *CachedPredictor) Predict(features Features) []int {
	n := features.Rows()
	out := make([]int, n)
	var (
		missIdx  []int
		missKeys []uint16
	)
	for i := 0; i < n; i++ {
		key := features.rowKey(i)
		if label, ok := c.cache.Get(key); ok {
			out[i] = label
			continue
		}
		missIdx = append(missIdx, i)
		missKeys = append(missKeys, key)
	}
	if len(missIdx) == 0 {
		return out
	}

	labels := c.model.Predict(features.Subset(missIdx))
	for k, i := range missIdx {
		out[i] = labels[k]
		c.cache.Add(missKeys[k], labels[k])
	}
	return out
}

// Len returns the number of cached rows.
func (c *CachedPredictor) Len() int { return c.cache.Len() }
