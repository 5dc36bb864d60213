package planogram

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/rueidis"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// catalogCacheTTL bounds how long a cached product/collection read-model entry is trusted
// before the next REST lookup falls through to the repository again.
const catalogCacheTTL = 30 * time.Second

// RemoteCache fronts the shared Redis instance the UI-facing REST replicas read through, so a
// catalog lookup that just landed on one replica via a cloud push is visible on the others
// without waiting on the database. Wraps rueidis; nil-safe, so a kiosk running a single REST
// replica can simply not configure one.
type RemoteCache struct {
	client rueidis.Client
}

// NewRemoteCache dials Redis using the given addresses; pass nil addrs to disable the cache.
func NewRemoteCache(addrs []string) (*RemoteCache, error) {
	if len(addrs) == 0 {
		return &RemoteCache{}, nil
	}
	c, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: addrs})
	if err != nil {
		return nil, err
	}
	return &RemoteCache{client: c}, nil
}

func (c *RemoteCache) enabled() bool { return c != nil && c.client != nil }

func (c *RemoteCache) productKey(id int) string    { return "kiosk:product:" + itoa(id) }
func (c *RemoteCache) collectionKey(id int) string { return "kiosk:collection:" + itoa(id) }

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// PutProduct caches a product read-model entry.
func (c *RemoteCache) PutProduct(ctx context.Context, p *model.Product) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	cmd := c.client.B().Set().Key(c.productKey(p.ID)).Value(rueidis.BinaryString(b)).Ex(catalogCacheTTL).Build()
	_ = c.client.Do(ctx, cmd).Error()
}

// GetProduct returns a cached product, or nil if absent/expired/disabled.
func (c *RemoteCache) GetProduct(ctx context.Context, id int) *model.Product {
	if !c.enabled() {
		return nil
	}
	cmd := c.client.B().Get().Key(c.productKey(id)).Build()
	resp := c.client.Do(ctx, cmd)
	b, err := resp.AsBytes()
	if err != nil {
		return nil
	}
	var p model.Product
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	return &p
}

// InvalidateProduct drops a cached entry, called after a product update lands from the cloud.
func (c *RemoteCache) InvalidateProduct(ctx context.Context, id int) {
	if !c.enabled() {
		return
	}
	cmd := c.client.B().Del().Key(c.productKey(id)).Build()
	_ = c.client.Do(ctx, cmd).Error()
}

// cacheProductLocal stores the hot, per-process read used by the in-process REST hot path
// before ever reaching Redis; ristretto's cost-aware admission keeps this bounded without a
// manual eviction policy.
func (s *Synchronizer) cacheProductLocal(p *model.Product) {
	s.hotCache.SetWithTTL(productCacheKey(p.ID), p, 1, catalogCacheTTL)
}

func (s *Synchronizer) getProductLocal(id int) (*model.Product, bool) {
	v, ok := s.hotCache.Get(productCacheKey(id))
	if !ok {
		return nil, false
	}
	p, ok := v.(*model.Product)
	return p, ok
}

func productCacheKey(id int) string { return "product:" + itoa(id) }

// GetProductCached serves a product lookup from the in-process hot cache, falling through to
// the repository (and populating the cache) on a miss. Used by the REST catalog endpoints so a
// kiosk with a large product catalog doesn't round-trip the database on every screen render.
func (s *Synchronizer) GetProductCached(ctx context.Context, id int) (*model.Product, error) {
	if p, ok := s.getProductLocal(id); ok {
		return p, nil
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	s.cacheProductLocal(p)
	return p, nil
}
